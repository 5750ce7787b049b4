package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Ownable is any contract exposing owner(). Contracts without it revert or
// return nothing, and Owner reports that as an error.
type Ownable struct {
	Address common.Address
	caller  Caller
}

func NewOwnable(addr common.Address, c Caller) *Ownable {
	return &Ownable{Address: addr, caller: c}
}

func (o *Ownable) Owner(ctx context.Context) (common.Address, error) {
	res, err := read(ctx, o.caller, "Ownable", o.Address, OwnableABI, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return res[0].(common.Address), nil
}
