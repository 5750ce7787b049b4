package writer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/util/chaintest"
	"github.com/tranvictor/bnames/util/txsender"
)

var (
	alice = common.HexToAddress("0xA11CE")
	bob   = common.HexToAddress("0xB0B")
	vault = common.HexToAddress("0xCAFE")
)

type recordingInvalidator struct {
	names []string
	addrs []common.Address
}

func (r *recordingInvalidator) Invalidate(name string) { r.names = append(r.names, name) }

func (r *recordingInvalidator) InvalidateAddress(addr common.Address) {
	r.addrs = append(r.addrs, addr)
}

func setup(n networks.Network) (*chaintest.Chain, *Writer, *recordingInvalidator) {
	chain := chaintest.New(n, alice)
	chain.SetOwner("alice."+n.ParentDomain, alice)
	chain.SetResolver("alice."+n.ParentDomain, n.Contracts.Resolver)
	inv := &recordingInvalidator{}
	exec := &txsender.Executor{Transactor: chain, Network: n.Name}
	w := New(resolution.NewEngine(n, chain, nil, nil), chain, exec, inv, nil)
	return chain, w, inv
}

func TestSetTextDetectsResolver(t *testing.T) {
	chain, w, inv := setup(networks.BaseSepolia)

	res, err := w.SetText(context.Background(), "alice", "url", "https://alice.example", common.Address{})
	require.NoError(t, err)
	assert.Equal(t, networks.BaseSepolia.Contracts.Resolver, res.Resolver)
	assert.NotEqual(t, common.Hash{}, res.TxHash)
	assert.Equal(t, "https://alice.example", chain.Text("alice.basetest.eth", "url"))
	assert.Equal(t, []string{"alice.basetest.eth"}, inv.names)
}

func TestWriteWithoutResolverFails(t *testing.T) {
	chain, w, _ := setup(networks.BaseSepolia)
	chain.SetOwner("bare.basetest.eth", alice)

	_, err := w.SetAddress(context.Background(), "bare", 0, vault, common.Address{})
	assert.ErrorIs(t, err, errs.ErrNoResolver)
	assert.Empty(t, chain.Sent())
}

func TestSetAddressUsesNetworkCoinType(t *testing.T) {
	chain, w, _ := setup(networks.BaseSepolia)
	_, err := w.SetAddress(context.Background(), "alice.basetest.eth", 0, vault, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, vault, chain.Addr("alice.basetest.eth", networks.BaseSepolia.AddressCoinType()))
	assert.Equal(t, common.Address{}, chain.Addr("alice.basetest.eth", contracts.EthCoinType))
}

func TestUnauthorisedWriteIsSimulationFailure(t *testing.T) {
	chain, w, inv := setup(networks.BaseSepolia)
	chain.SetOwner("bob.basetest.eth", bob)

	_, err := w.SetOwner(context.Background(), "bob", alice)
	assert.ErrorIs(t, err, errs.ErrSimulationFailed)
	assert.Empty(t, chain.Sent())
	assert.Empty(t, inv.names)
	assert.Equal(t, bob, chain.Owner("bob.basetest.eth"))
}

func TestPrimaryNameForSigner(t *testing.T) {
	chain, w, inv := setup(networks.BaseSepolia)
	_, err := w.SetPrimaryName(context.Background(), alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice.basetest.eth", chain.PrimaryName(alice))
	assert.Equal(t, "ReverseRegistrar.setName", chain.Sent()[0].Method)
	assert.Equal(t, []common.Address{alice}, inv.addrs)
}

func TestPrimaryNameForContractUsesNetworkVariant(t *testing.T) {
	for _, n := range []networks.Network{networks.BaseSepolia, networks.BaseMainnet} {
		t.Run(n.Name, func(t *testing.T) {
			chain, w, _ := setup(n)
			chain.DeployOwnable(vault, alice)

			_, err := w.SetPrimaryName(context.Background(), vault, "alice."+n.ParentDomain)
			require.NoError(t, err)
			assert.Equal(t, "alice."+n.ParentDomain, chain.PrimaryName(vault))

			sent := chain.Sent()
			require.Len(t, sent, 1)
			abi := contracts.ReverseRegistrarV2ABI
			if n.ReverseRegistrarKind == networks.ReverseRegistrarV1 {
				abi = contracts.ReverseRegistrarV1ABI
			}
			assert.Equal(t, abi.Methods["setNameForAddr"].ID, sent[0].Data[:4])
		})
	}
}

func TestCreateSubnameInheritsParentResolver(t *testing.T) {
	chain, w, _ := setup(networks.BaseSepolia)
	custom := common.HexToAddress("0x5E5E")
	chain.SetResolver("alice.basetest.eth", custom)

	res, err := w.CreateSubname(context.Background(), "alice", "vault", alice, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, "vault.alice.basetest.eth", res.Name)
	assert.Equal(t, custom, res.Resolver)
	assert.Equal(t, alice, chain.Owner("vault.alice.basetest.eth"))
}

func TestDryRunSendsNothing(t *testing.T) {
	chain, w, inv := setup(networks.BaseSepolia)
	w.exec.DryRun = true

	res, err := w.SetText(context.Background(), "alice", "url", "x", common.Address{})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Empty(t, chain.Sent())
	assert.Empty(t, inv.names)
}
