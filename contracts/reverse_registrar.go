package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ReverseRegistrar maps addresses back to their primary name. Its
// setNameForAddr arity is chosen by the caller from network config.
type ReverseRegistrar struct {
	Address  common.Address
	FourArgs bool
	caller   Caller
}

func NewReverseRegistrar(addr common.Address, fourArgs bool, c Caller) *ReverseRegistrar {
	return &ReverseRegistrar{Address: addr, FourArgs: fourArgs, caller: c}
}

func (rr *ReverseRegistrar) contractABI() *abi.ABI {
	if rr.FourArgs {
		return ReverseRegistrarV1ABI
	}
	return ReverseRegistrarV2ABI
}

// Node asks the registrar for the reverse node of addr.
func (rr *ReverseRegistrar) Node(ctx context.Context, addr common.Address) (common.Hash, error) {
	res, err := read(ctx, rr.caller, "ReverseRegistrar", rr.Address, rr.contractABI(), "node", addr)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(res[0].([32]byte)), nil
}

// SetName sets the primary name of the sender.
func (rr *ReverseRegistrar) SetName(name string) (Call, error) {
	return pack("ReverseRegistrar", rr.Address, rr.contractABI(), "setName", name)
}

// SetNameForAddr sets the primary name of addr. owner and resolver are
// only encoded by four argument registrars; resolver must be set there.
func (rr *ReverseRegistrar) SetNameForAddr(addr, owner, resolver common.Address, name string) (Call, error) {
	if !rr.FourArgs {
		return pack("ReverseRegistrar", rr.Address, rr.contractABI(), "setNameForAddr", addr, name)
	}
	if resolver == (common.Address{}) {
		return Call{}, fmt.Errorf("ReverseRegistrar.setNameForAddr: resolver is required")
	}
	return pack("ReverseRegistrar", rr.Address, rr.contractABI(), "setNameForAddr", addr, owner, resolver, name)
}
