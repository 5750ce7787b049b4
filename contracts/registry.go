package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the root record store: node -> owner, resolver.
type Registry struct {
	Address common.Address
	caller  Caller
}

func NewRegistry(addr common.Address, c Caller) *Registry {
	return &Registry{Address: addr, caller: c}
}

func (r *Registry) Owner(ctx context.Context, node common.Hash) (common.Address, error) {
	res, err := read(ctx, r.caller, "Registry", r.Address, RegistryABI, "owner", node)
	if err != nil {
		return common.Address{}, err
	}
	return res[0].(common.Address), nil
}

// Resolver returns the zero address when node has no resolver.
func (r *Registry) Resolver(ctx context.Context, node common.Hash) (common.Address, error) {
	res, err := read(ctx, r.caller, "Registry", r.Address, RegistryABI, "resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	return res[0].(common.Address), nil
}

func (r *Registry) SetSubnodeRecord(parent, label common.Hash, owner, resolver common.Address, ttl uint64) (Call, error) {
	return pack("Registry", r.Address, RegistryABI, "setSubnodeRecord", parent, label, owner, resolver, ttl)
}

func (r *Registry) SetOwner(node common.Hash, owner common.Address) (Call, error) {
	return pack("Registry", r.Address, RegistryABI, "setOwner", node, owner)
}
