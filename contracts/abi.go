// Package contracts holds one typed descriptor per on-chain contract the
// client talks to. ABIs are parsed once when the package is loaded; every
// method name used by the descriptors is checked to exist at that point.
package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the read side of a chain client. *ethclient.Client and
// *reader.EthReader both satisfy it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call is an encoded state-changing call, ready to be simulated and sent.
type Call struct {
	To     common.Address
	Data   []byte
	Value  *big.Int
	Method string // "<contract>.<method>", for logs and errors
}

const registryABIJSON = `[
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"resolver","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"setSubnodeRecord","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"label","type":"bytes32"},{"name":"owner","type":"address"},{"name":"resolver","type":"address"},{"name":"ttl","type":"uint64"}],
	 "outputs":[]},
	{"type":"function","name":"setOwner","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"owner","type":"address"}],
	 "outputs":[]}
]`

// The two addr and setAddr overloads parse as addr/addr0 and
// setAddr/setAddr0 in declaration order.
const resolverABIJSON = `[
	{"type":"function","name":"addr","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"addr","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],
	 "outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"text","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"name","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"setAddr","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"a","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"setAddr","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"},{"name":"a","type":"bytes"}],
	 "outputs":[]},
	{"type":"function","name":"setText","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"},{"name":"value","type":"string"}],
	 "outputs":[]}
]`

const registrarControllerABIJSON = `[
	{"type":"function","name":"available","stateMutability":"view",
	 "inputs":[{"name":"name","type":"string"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"registerPrice","stateMutability":"view",
	 "inputs":[{"name":"name","type":"string"},{"name":"duration","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"register","stateMutability":"payable",
	 "inputs":[{"name":"request","type":"tuple","components":[
		{"name":"name","type":"string"},
		{"name":"owner","type":"address"},
		{"name":"duration","type":"uint256"},
		{"name":"resolver","type":"address"},
		{"name":"data","type":"bytes[]"},
		{"name":"reverseRecord","type":"bool"}]}],
	 "outputs":[]}
]`

const reverseRegistrarV1ABIJSON = `[
	{"type":"function","name":"node","stateMutability":"pure",
	 "inputs":[{"name":"addr","type":"address"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"setName","stateMutability":"nonpayable",
	 "inputs":[{"name":"name","type":"string"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"setNameForAddr","stateMutability":"nonpayable",
	 "inputs":[{"name":"addr","type":"address"},{"name":"owner","type":"address"},{"name":"resolver","type":"address"},{"name":"name","type":"string"}],
	 "outputs":[{"name":"","type":"bytes32"}]}
]`

const reverseRegistrarV2ABIJSON = `[
	{"type":"function","name":"node","stateMutability":"view",
	 "inputs":[{"name":"addr","type":"address"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"setName","stateMutability":"nonpayable",
	 "inputs":[{"name":"name","type":"string"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"setNameForAddr","stateMutability":"nonpayable",
	 "inputs":[{"name":"addr","type":"address"},{"name":"name","type":"string"}],
	 "outputs":[{"name":"","type":"bytes32"}]}
]`

const ownableABIJSON = `[
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address"}]}
]`

var (
	RegistryABI            = mustParse("Registry", registryABIJSON, "owner", "resolver", "setSubnodeRecord", "setOwner")
	ResolverABI            = mustParse("Resolver", resolverABIJSON, "addr", "addr0", "text", "name", "setAddr", "setAddr0", "setText")
	RegistrarControllerABI = mustParse("RegistrarController", registrarControllerABIJSON, "available", "registerPrice", "register")
	ReverseRegistrarV1ABI  = mustParse("ReverseRegistrarV1", reverseRegistrarV1ABIJSON, "node", "setName", "setNameForAddr")
	ReverseRegistrarV2ABI  = mustParse("ReverseRegistrarV2", reverseRegistrarV2ABIJSON, "node", "setName", "setNameForAddr")
	OwnableABI             = mustParse("Ownable", ownableABIJSON, "owner")
)

func mustParse(contract, raw string, methods ...string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("contracts: invalid %s abi: %s", contract, err))
	}
	for _, m := range methods {
		if _, ok := parsed.Methods[m]; !ok {
			panic(fmt.Sprintf("contracts: %s abi has no method %s", contract, m))
		}
	}
	return &parsed
}

// read packs method, calls it at the latest block and unpacks the result.
func read(ctx context.Context, c Caller, contract string, to common.Address, a *abi.ABI, method string, args ...any) ([]any, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: couldn't pack: %w", contract, method, err)
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s.%s at %s: %w", contract, method, to.Hex(), err)
	}
	res, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s.%s at %s: couldn't unpack %d bytes: %w", contract, method, to.Hex(), len(out), err)
	}
	return res, nil
}

func pack(contract string, to common.Address, a *abi.ABI, method string, args ...any) (Call, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("%s.%s: couldn't pack: %w", contract, method, err)
	}
	return Call{To: to, Data: data, Method: contract + "." + strings.TrimRight(method, "0123456789")}, nil
}
