package chaintest

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
)

var (
	alice = common.HexToAddress("0xA11CE")
	bob   = common.HexToAddress("0xB0B")
)

func TestReadsGoThroughTypedDescriptors(t *testing.T) {
	n := networks.BaseSepolia
	chain := New(n, alice)
	node := chain.SetOwner("alice.basetest.eth", alice)
	chain.SetResolver("alice.basetest.eth", n.Contracts.Resolver)
	chain.SetText("alice.basetest.eth", "url", "https://alice.example")

	ctx := context.Background()
	owner, err := contracts.NewRegistry(n.Contracts.Registry, chain).Owner(ctx, node)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	text, err := contracts.NewResolver(n.Contracts.Resolver, chain).Text(ctx, node, "url")
	require.NoError(t, err)
	assert.Equal(t, "https://alice.example", text)
}

func TestUnauthorisedWriteRevertsAndKeepsState(t *testing.T) {
	n := networks.BaseSepolia
	chain := New(n, alice)
	parent := chain.SetOwner("bob.basetest.eth", bob)

	label, _ := namehash.LabelHash("vault")
	call, err := contracts.NewRegistry(n.Contracts.Registry, chain).
		SetSubnodeRecord(parent, label, alice, n.Contracts.Resolver, 0)
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, chain.Simulate(ctx, call))

	hash, err := chain.Send(ctx, call)
	require.NoError(t, err)
	receipt, err := chain.WaitMined(ctx, hash, 2)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Equal(t, common.Address{}, chain.Owner("vault.bob.basetest.eth"))
}

func TestCallingContractWithoutOwnerReverts(t *testing.T) {
	_, err := contracts.NewOwnable(common.HexToAddress("0xCAFE"), New(networks.BaseSepolia, alice)).
		Owner(context.Background())
	var revertErr *RevertError
	assert.ErrorAs(t, err, &revertErr)
}

func TestInjectedRevertCarriesReason(t *testing.T) {
	chain := New(networks.BaseSepolia, alice)
	chain.RevertOn("Resolver.setText", "paused")
	node := chain.SetOwner("alice.basetest.eth", alice)

	call, err := contracts.NewResolver(networks.BaseSepolia.Contracts.Resolver, chain).SetText(node, "k", "v")
	require.NoError(t, err)
	err = chain.Simulate(context.Background(), call)
	assert.EqualError(t, err, "execution reverted: paused")
}
