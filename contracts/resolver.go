package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EthCoinType is the coin type served by the single-argument addr(node).
const EthCoinType uint64 = 60

// Resolver holds the records of the nodes that point at it.
type Resolver struct {
	Address common.Address
	caller  Caller
}

func NewResolver(addr common.Address, c Caller) *Resolver {
	return &Resolver{Address: addr, caller: c}
}

// Addr returns the address record under coinType. Coin type 60 reads
// addr(node); every other coin type reads addr(node, coinType) and expects
// a 20 byte EVM address. An unset record is the zero address.
func (r *Resolver) Addr(ctx context.Context, node common.Hash, coinType uint64) (common.Address, error) {
	if coinType == EthCoinType {
		res, err := read(ctx, r.caller, "Resolver", r.Address, ResolverABI, "addr", node)
		if err != nil {
			return common.Address{}, err
		}
		return res[0].(common.Address), nil
	}
	res, err := read(ctx, r.caller, "Resolver", r.Address, ResolverABI, "addr0", node, new(big.Int).SetUint64(coinType))
	if err != nil {
		return common.Address{}, err
	}
	raw := res[0].([]byte)
	switch len(raw) {
	case 0:
		return common.Address{}, nil
	case common.AddressLength:
		return common.BytesToAddress(raw), nil
	}
	return common.Address{}, fmt.Errorf("Resolver.addr at %s: coin type %d record is %d bytes, not an EVM address", r.Address.Hex(), coinType, len(raw))
}

func (r *Resolver) Text(ctx context.Context, node common.Hash, key string) (string, error) {
	res, err := read(ctx, r.caller, "Resolver", r.Address, ResolverABI, "text", node, key)
	if err != nil {
		return "", err
	}
	return res[0].(string), nil
}

// Name reads the name record, which on a reverse node is the primary name.
func (r *Resolver) Name(ctx context.Context, node common.Hash) (string, error) {
	res, err := read(ctx, r.caller, "Resolver", r.Address, ResolverABI, "name", node)
	if err != nil {
		return "", err
	}
	return res[0].(string), nil
}

func (r *Resolver) SetAddr(node common.Hash, coinType uint64, addr common.Address) (Call, error) {
	if coinType == EthCoinType {
		return pack("Resolver", r.Address, ResolverABI, "setAddr", node, addr)
	}
	return pack("Resolver", r.Address, ResolverABI, "setAddr0", node, new(big.Int).SetUint64(coinType), addr.Bytes())
}

// SetText writes key on node. An empty value clears the record.
func (r *Resolver) SetText(node common.Hash, key, value string) (Call, error) {
	return pack("Resolver", r.Address, ResolverABI, "setText", node, key, value)
}
