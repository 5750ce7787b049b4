package contracts

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectors(t *testing.T) {
	cases := []struct {
		abi      *abi.ABI
		method   string
		sig      string
		selector string
	}{
		{RegistryABI, "owner", "owner(bytes32)", "0x02571be3"},
		{RegistryABI, "resolver", "resolver(bytes32)", "0x0178b8bf"},
		{RegistryABI, "setSubnodeRecord", "setSubnodeRecord(bytes32,bytes32,address,address,uint64)", "0x5ef2c7f0"},
		{RegistryABI, "setOwner", "setOwner(bytes32,address)", "0x5b0fc9c3"},
		{ResolverABI, "addr", "addr(bytes32)", "0x3b3b57de"},
		{ResolverABI, "addr0", "addr(bytes32,uint256)", "0xf1cb7e06"},
		{ResolverABI, "text", "text(bytes32,string)", "0x59d1d43c"},
		{ResolverABI, "name", "name(bytes32)", "0x691f3431"},
		{ResolverABI, "setAddr", "setAddr(bytes32,address)", "0xd5fa2b00"},
		{ResolverABI, "setAddr0", "setAddr(bytes32,uint256,bytes)", "0x8b95dd71"},
		{ResolverABI, "setText", "setText(bytes32,string,string)", "0x10f13a8c"},
		{ReverseRegistrarV1ABI, "setName", "setName(string)", "0xc47f0027"},
		{OwnableABI, "owner", "owner()", "0x8da5cb5b"},
	}
	for _, c := range cases {
		m, ok := c.abi.Methods[c.method]
		require.True(t, ok, c.method)
		assert.Equal(t, c.sig, m.Sig, c.method)
		assert.Equal(t, c.selector, hexutil.Encode(m.ID), c.sig)
	}

	assert.Equal(t, "setNameForAddr(address,address,address,string)", ReverseRegistrarV1ABI.Methods["setNameForAddr"].Sig)
	assert.Equal(t, "setNameForAddr(address,string)", ReverseRegistrarV2ABI.Methods["setNameForAddr"].Sig)
	assert.Equal(t, "register((string,address,uint256,address,bytes[],bool))", RegistrarControllerABI.Methods["register"].Sig)
}

// stubCaller answers a single method with canned return values.
type stubCaller struct {
	abi    *abi.ABI
	method string
	ret    []any
	err    error
	got    []byte
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.got = msg.Data
	if s.err != nil {
		return nil, s.err
	}
	m := s.abi.Methods[s.method]
	if !bytes.Equal(msg.Data[:4], m.ID) {
		return nil, errors.New("execution reverted")
	}
	return m.Outputs.Pack(s.ret...)
}

func TestResolverAddrByCoinType(t *testing.T) {
	want := common.HexToAddress("0x000000000000000000000000000000000000CAFE")
	node := common.HexToHash("0x01")

	eth := &stubCaller{abi: ResolverABI, method: "addr", ret: []any{want}}
	got, err := NewResolver(common.Address{1}, eth).Addr(context.Background(), node, EthCoinType)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	l2 := &stubCaller{abi: ResolverABI, method: "addr0", ret: []any{want.Bytes()}}
	got, err = NewResolver(common.Address{1}, l2).Addr(context.Background(), node, 2147492101)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	unset := &stubCaller{abi: ResolverABI, method: "addr0", ret: []any{[]byte{}}}
	got, err = NewResolver(common.Address{1}, unset).Addr(context.Background(), node, 2147492101)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, got)
}

func TestReadErrorNamesContract(t *testing.T) {
	c := &stubCaller{err: errors.New("connection refused")}
	addr := common.HexToAddress("0x1493b2567056c2181630115660963E13A8E32735")
	_, err := NewRegistry(addr, c).Resolver(context.Background(), common.Hash{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Registry.resolver")
	assert.Contains(t, err.Error(), addr.Hex())
}

func TestOwnableRevertIsError(t *testing.T) {
	c := &stubCaller{abi: OwnableABI, method: "nothing"}
	_, err := NewOwnable(common.Address{2}, c).Owner(context.Background())
	assert.Error(t, err)
}

func TestReverseRegistrarArity(t *testing.T) {
	target := common.HexToAddress("0xCAFE")
	resolver := common.HexToAddress("0xBEEF")

	v2 := NewReverseRegistrar(common.Address{3}, false, nil)
	call, err := v2.SetNameForAddr(target, common.Address{}, common.Address{}, "vault.alice.basetest.eth")
	require.NoError(t, err)
	assert.Equal(t, ReverseRegistrarV2ABI.Methods["setNameForAddr"].ID, call.Data[:4])
	assert.Equal(t, "ReverseRegistrar.setNameForAddr", call.Method)

	v1 := NewReverseRegistrar(common.Address{3}, true, nil)
	_, err = v1.SetNameForAddr(target, target, common.Address{}, "x.base.eth")
	assert.Error(t, err)
	call, err = v1.SetNameForAddr(target, target, resolver, "x.base.eth")
	require.NoError(t, err)
	assert.Equal(t, ReverseRegistrarV1ABI.Methods["setNameForAddr"].ID, call.Data[:4])
}

func TestRegisterCarriesValue(t *testing.T) {
	rc := NewRegistrarController(common.Address{4}, nil)
	price := big.NewInt(1_000_000_000_000_000)
	call, err := rc.Register(RegisterRequest{
		Name:          "coolname",
		Owner:         common.HexToAddress("0xA11CE"),
		Duration:      big.NewInt(31536000),
		Resolver:      common.Address{5},
		Data:          [][]byte{{0x01}},
		ReverseRecord: true,
	}, price)
	require.NoError(t, err)
	assert.Equal(t, price, call.Value)

	args, err := RegistrarControllerABI.Methods["register"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	req := *abi.ConvertType(args[0], new(RegisterRequest)).(*RegisterRequest)
	assert.Equal(t, "coolname", req.Name)
	assert.True(t, req.ReverseRecord)
	assert.Equal(t, int64(31536000), req.Duration.Int64())
}
