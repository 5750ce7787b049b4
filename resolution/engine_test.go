package resolution

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/index"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/util/chaintest"
)

var (
	alice = common.HexToAddress("0xA11CE")
	vault = common.HexToAddress("0xCAFE")
)

func newChain() *chaintest.Chain {
	n := networks.BaseSepolia
	chain := chaintest.New(n, alice)
	chain.SetOwner("alice.basetest.eth", alice)
	chain.SetResolver("alice.basetest.eth", n.Contracts.Resolver)
	return chain
}

func slowIndex(t *testing.T) *index.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return index.NewClient(srv.URL, 20*time.Millisecond, nil)
}

func staticIndex(t *testing.T, hits *int32, reply string) *index.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return index.NewClient(srv.URL, time.Second, nil)
}

func TestIndexTimeoutFallsBackToChain(t *testing.T) {
	chain := newChain()
	n := chain.Network()
	chain.SetAddr("alice.basetest.eth", n.AddressCoinType(), vault)

	e := NewEngine(n, chain, slowIndex(t), nil)
	rec, err := e.Address(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.True(t, rec.Found)
	assert.Equal(t, vault, rec.Address)
	assert.Equal(t, SourceChain, rec.Source)
	assert.Equal(t, "alice.basetest.eth", rec.Name)
	assert.Equal(t, n.Contracts.Resolver, rec.Resolver)
}

func TestNotFoundOnBothSources(t *testing.T) {
	var hits int32
	idx := staticIndex(t, &hits, `{"data":{"domain":null}}`)
	e := NewEngine(networks.BaseSepolia, newChain(), idx, nil)

	rec, err := e.Text(context.Background(), "alice.basetest.eth", "avatar")
	require.NoError(t, err)
	assert.False(t, rec.Found)
	assert.Equal(t, SourceChain, rec.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestIndexAnswerIsReturnedFirst(t *testing.T) {
	var hits int32
	idx := staticIndex(t, &hits, `{"data":{"domain":{"name":"alice.basetest.eth",
		"texts":[{"key":"url","value":"https://indexed.example"}]}}}`)
	chain := newChain()
	chain.SetText("alice.basetest.eth", "url", "https://chain.example")

	rec, err := NewEngine(chain.Network(), chain, idx, nil).Text(context.Background(), "alice", "url")
	require.NoError(t, err)
	assert.Equal(t, SourceIndex, rec.Source)
	assert.Equal(t, "https://indexed.example", rec.Value)

	// a key the index does not have still resolves from chain
	chain.SetText("alice.basetest.eth", "avatar", "ipfs://x")
	rec, err = NewEngine(chain.Network(), chain, idx, nil).Text(context.Background(), "alice", "avatar")
	require.NoError(t, err)
	assert.Equal(t, SourceChain, rec.Source)
	assert.Equal(t, "ipfs://x", rec.Value)
}

func TestNoResolver(t *testing.T) {
	chain := chaintest.New(networks.BaseSepolia, alice)
	chain.SetOwner("bare.basetest.eth", alice)

	_, err := NewEngine(chain.Network(), chain, nil, nil).Address(context.Background(), "bare", 0)
	assert.ErrorIs(t, err, errs.ErrNoResolver)
}

func TestRPCFailureCarriesContext(t *testing.T) {
	chain := newChain()
	chain.FailReads(errors.New("dial tcp: connection refused"))

	_, err := NewEngine(chain.Network(), chain, nil, nil).
		WithEndpoint("public-base-sepolia").
		Resolver(context.Background(), "alice")
	require.ErrorIs(t, err, errs.ErrRPC)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	node, _ := namehash.NameHash("alice.basetest.eth")
	assert.Equal(t, "base-sepolia", e.Network)
	assert.Equal(t, node.Hex(), e.Node)
	assert.Equal(t, networks.BaseSepolia.Contracts.Registry.Hex(), e.Contract)
	assert.Equal(t, "public-base-sepolia", e.Endpoint)
	assert.True(t, e.Retryable())
}

func TestInvalidNameFailsBeforeAnyLookup(t *testing.T) {
	var hits int32
	idx := staticIndex(t, &hits, `{"data":{"domain":null}}`)
	_, err := NewEngine(networks.BaseSepolia, newChain(), idx, nil).Address(context.Background(), "bad name!", 0)
	assert.ErrorIs(t, err, errs.ErrInvalidName)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestPrimaryNameFromChain(t *testing.T) {
	chain := newChain()
	chain.SetPrimaryName(alice, "alice.basetest.eth")

	rec, err := NewEngine(chain.Network(), chain, slowIndex(t), nil).PrimaryName(context.Background(), alice)
	require.NoError(t, err)
	assert.True(t, rec.Found)
	assert.Equal(t, "alice.basetest.eth", rec.Value)
	assert.Equal(t, SourceChain, rec.Source)
}

func TestReverseNodeWithoutReverseDomainAsksRegistrar(t *testing.T) {
	n := networks.BaseSepolia
	chain := chaintest.New(n, alice)
	local, err := NewEngine(n, chain, nil, nil).ReverseNode(context.Background(), alice)
	require.NoError(t, err)

	// the fake registrar derives nodes from the network it was built for
	n.ReverseDomain = ""
	remote, err := NewEngine(n, chain, nil, nil).ReverseNode(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, local, remote)
}

func TestEffectiveResolverFallsBackToAncestor(t *testing.T) {
	chain := newChain()
	chain.SetOwner("vault.alice.basetest.eth", alice)
	e := NewEngine(chain.Network(), chain, nil, nil)

	name, err := namehash.Parse("vault.alice", chain.Network().ParentDomain)
	require.NoError(t, err)
	resolver, err := e.EffectiveResolver(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, chain.Network().Contracts.Resolver, resolver)

	orphan, err := namehash.Parse("x.nobody", chain.Network().ParentDomain)
	require.NoError(t, err)
	_, err = e.EffectiveResolver(context.Background(), orphan)
	assert.ErrorIs(t, err, errs.ErrNoResolver)
}

func TestEffectiveResolverIgnoresParentDomain(t *testing.T) {
	chain := newChain()
	n := chain.Network()
	chain.SetResolver(n.ParentDomain, n.Contracts.Resolver)
	e := NewEngine(n, chain, nil, nil)

	for _, in := range []string{"nobody", "x.nobody"} {
		name, err := namehash.Parse(in, n.ParentDomain)
		require.NoError(t, err)
		_, err = e.EffectiveResolver(context.Background(), name)
		assert.ErrorIs(t, err, errs.ErrNoResolver, in)
	}
}
