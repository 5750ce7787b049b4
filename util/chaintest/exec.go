package chaintest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
)

const secondsPerYear = 31536000

// frame is one decoded call.
type frame struct {
	from   common.Address
	to     common.Address
	value  *big.Int
	method *abi.Method
	args   []any
	commit bool
}

func (f *frame) pack(values ...any) ([]byte, error) {
	return f.method.Outputs.Pack(values...)
}

func (c *Chain) contractAt(to common.Address) (string, *abi.ABI) {
	ct := c.network.Contracts
	switch {
	case to == ct.Registry:
		return "Registry", contracts.RegistryABI
	case to == ct.RegistrarController:
		return "RegistrarController", contracts.RegistrarControllerABI
	case to == ct.ReverseRegistrar:
		if c.network.ReverseRegistrarKind == networks.ReverseRegistrarV1 {
			return "ReverseRegistrar", contracts.ReverseRegistrarV1ABI
		}
		return "ReverseRegistrar", contracts.ReverseRegistrarV2ABI
	case c.resolverContracts[to]:
		return "Resolver", contracts.ResolverABI
	}
	if _, ok := c.ownables[to]; ok {
		return "Ownable", contracts.OwnableABI
	}
	return "", nil
}

// exec decodes and runs one call. State only changes when commit is set.
// It returns the abi encoded output and the "Contract.method" name.
func (c *Chain) exec(from, to common.Address, data []byte, value *big.Int, commit bool) ([]byte, string, error) {
	contract, parsed := c.contractAt(to)
	if parsed == nil || len(data) < 4 {
		// no code, or no function matching the selector
		return nil, "", revert("")
	}
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, "", revert("")
	}
	method := contract + "." + m.RawName
	if reason, ok := c.reverts[method]; ok {
		return nil, method, revert(reason)
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, method, revert("")
	}
	if value == nil {
		value = big.NewInt(0)
	}
	f := &frame{from: from, to: to, value: value, method: m, args: args, commit: commit}

	var out []byte
	switch contract {
	case "Registry":
		out, err = c.registry(f)
	case "Resolver":
		out, err = c.resolver(f)
	case "RegistrarController":
		out, err = c.controller(f)
	case "ReverseRegistrar":
		out, err = c.reverseRegistrar(f)
	case "Ownable":
		out, err = f.pack(c.ownables[to])
	}
	return out, method, err
}

func hashArg(v any) common.Hash {
	return common.Hash(v.([32]byte))
}

func (c *Chain) registry(f *frame) ([]byte, error) {
	switch f.method.Name {
	case "owner":
		return f.pack(c.owners[hashArg(f.args[0])])
	case "resolver":
		return f.pack(c.resolvers[hashArg(f.args[0])])
	case "setSubnodeRecord":
		parent := hashArg(f.args[0])
		if c.owners[parent] != f.from {
			return nil, revert("")
		}
		if f.commit {
			child := namehash.Subnode(parent, hashArg(f.args[1]))
			c.owners[child] = f.args[2].(common.Address)
			c.resolvers[child] = f.args[3].(common.Address)
		}
		return nil, nil
	case "setOwner":
		node := hashArg(f.args[0])
		if c.owners[node] != f.from {
			return nil, revert("")
		}
		if f.commit {
			c.owners[node] = f.args[1].(common.Address)
		}
		return nil, nil
	}
	return nil, revert("")
}

// authorised mirrors the resolver rule: only the registry owner of a node
// edits its records. The controller and reverse registrar write on behalf
// of their callers.
func (c *Chain) authorised(node common.Hash, from common.Address) bool {
	ct := c.network.Contracts
	return c.owners[node] == from || from == ct.RegistrarController || from == ct.ReverseRegistrar
}

func (c *Chain) resolver(f *frame) ([]byte, error) {
	node := hashArg(f.args[0])
	switch f.method.Name {
	case "addr":
		return f.pack(common.BytesToAddress(c.addrs[node][contracts.EthCoinType]))
	case "addr0":
		coinType := f.args[1].(*big.Int).Uint64()
		raw := c.addrs[node][coinType]
		if raw == nil {
			raw = []byte{}
		}
		return f.pack(raw)
	case "text":
		return f.pack(c.texts[node][f.args[1].(string)])
	case "name":
		return f.pack(c.names[node])
	}
	if !c.authorised(node, f.from) {
		return nil, revert("")
	}
	if !f.commit {
		return nil, nil
	}
	switch f.method.Name {
	case "setAddr":
		c.setAddr(node, contracts.EthCoinType, f.args[1].(common.Address).Bytes())
	case "setAddr0":
		c.setAddr(node, f.args[1].(*big.Int).Uint64(), f.args[2].([]byte))
	case "setText":
		c.setText(node, f.args[1].(string), f.args[2].(string))
	default:
		return nil, revert("")
	}
	return nil, nil
}

func (c *Chain) price(duration *big.Int) *big.Int {
	p := new(big.Int).Mul(c.pricePerYear, duration)
	return p.Div(p, big.NewInt(secondsPerYear))
}

func (c *Chain) controller(f *frame) ([]byte, error) {
	switch f.method.Name {
	case "available":
		return f.pack(!c.registered[f.args[0].(string)])
	case "registerPrice":
		return f.pack(c.price(f.args[1].(*big.Int)))
	case "register":
	default:
		return nil, revert("")
	}

	req := *abi.ConvertType(f.args[0], new(contracts.RegisterRequest)).(*contracts.RegisterRequest)
	if c.registered[req.Name] {
		return nil, revert("RegistrarController: name not available")
	}
	if f.value.Cmp(c.price(req.Duration)) < 0 {
		return nil, revert("RegistrarController: insufficient value")
	}
	parent := mustNameHash(c.network.ParentDomain)
	node := namehash.Subnode(parent, crypto.Keccak256Hash([]byte(req.Name)))
	if !f.commit {
		return nil, nil
	}
	c.registered[req.Name] = true
	c.owners[node] = req.Owner
	c.resolvers[node] = req.Resolver
	c.resolverContracts[req.Resolver] = true
	for _, data := range req.Data {
		if _, _, err := c.exec(f.to, req.Resolver, data, nil, true); err != nil {
			return nil, revert("RegistrarController: resolver data failed")
		}
	}
	if req.ReverseRecord {
		rnode := c.reverseNode(req.Owner)
		c.owners[rnode] = req.Owner
		c.resolvers[rnode] = req.Resolver
		c.names[rnode] = req.Name + "." + c.network.ParentDomain
	}
	return nil, nil
}

// ownsContract is the reverse registrar's view of who may name addr.
func (c *Chain) ownsContract(addr, from common.Address) bool {
	owner, ok := c.ownables[addr]
	return ok && owner == from
}

func (c *Chain) reverseRegistrar(f *frame) ([]byte, error) {
	ct := c.network.Contracts
	switch f.method.Name {
	case "node":
		return f.pack(c.reverseNode(f.args[0].(common.Address)))
	case "setName":
		node := c.reverseNode(f.from)
		if f.commit {
			c.owners[node] = f.from
			c.resolvers[node] = ct.Resolver
			c.names[node] = f.args[0].(string)
		}
		return f.pack(node)
	case "setNameForAddr":
	default:
		return nil, revert("")
	}

	addr := f.args[0].(common.Address)
	if addr != f.from && !c.ownsContract(addr, f.from) {
		return nil, revert("ReverseRegistrar: Caller is not a controller or owner of the address")
	}
	owner, resolver, name := addr, ct.Resolver, ""
	if len(f.args) == 4 {
		owner = f.args[1].(common.Address)
		resolver = f.args[2].(common.Address)
		name = f.args[3].(string)
	} else {
		name = f.args[1].(string)
	}
	node := c.reverseNode(addr)
	if f.commit {
		c.owners[node] = owner
		c.resolvers[node] = resolver
		c.resolverContracts[resolver] = true
		c.names[node] = name
	}
	return f.pack(node)
}
