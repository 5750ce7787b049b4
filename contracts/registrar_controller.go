package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RegisterRequest mirrors the controller's RegisterRequest struct.
type RegisterRequest struct {
	Name          string
	Owner         common.Address
	Duration      *big.Int
	Resolver      common.Address
	Data          [][]byte
	ReverseRecord bool
}

// RegistrarController sells top-level names under the parent domain.
type RegistrarController struct {
	Address common.Address
	caller  Caller
}

func NewRegistrarController(addr common.Address, c Caller) *RegistrarController {
	return &RegistrarController{Address: addr, caller: c}
}

func (rc *RegistrarController) Available(ctx context.Context, label string) (bool, error) {
	res, err := read(ctx, rc.caller, "RegistrarController", rc.Address, RegistrarControllerABI, "available", label)
	if err != nil {
		return false, err
	}
	return res[0].(bool), nil
}

// RegisterPrice is the price in wei of label for duration seconds.
func (rc *RegistrarController) RegisterPrice(ctx context.Context, label string, duration *big.Int) (*big.Int, error) {
	res, err := read(ctx, rc.caller, "RegistrarController", rc.Address, RegistrarControllerABI, "registerPrice", label, duration)
	if err != nil {
		return nil, err
	}
	return res[0].(*big.Int), nil
}

// Register encodes register(request) paying value.
func (rc *RegistrarController) Register(req RegisterRequest, value *big.Int) (Call, error) {
	call, err := pack("RegistrarController", rc.Address, RegistrarControllerABI, "register", req)
	if err != nil {
		return Call{}, err
	}
	call.Value = value
	return call, nil
}
