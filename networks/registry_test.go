package networks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customNetworkJSON = `{
	"name": "base-local",
	"alternative_names": ["anvil"],
	"chain_id": 31337,
	"parent_domain": "basetest.eth",
	"reverse_domain": "80007a69.reverse",
	"contracts": {
		"registry": "0x1111111111111111111111111111111111111111",
		"resolver": "0x2222222222222222222222222222222222222222",
		"registrar_controller": "0x3333333333333333333333333333333333333333",
		"reverse_registrar": "0x4444444444444444444444444444444444444444"
	},
	"reverse_registrar_kind": "v2",
	"index_url": "http://localhost:8000/graphql",
	"block_time": 1,
	"node_variable_name": "BASE_LOCAL_NODE",
	"default_nodes": {"anvil": "http://localhost:8545"}
}`

func TestBuiltinNetworks(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	n, err := r.Get("base")
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), n.ChainID)
	assert.Equal(t, uint64(2147492101), n.AddressCoinType())
	assert.Equal(t, ReverseRegistrarV1, n.ReverseRegistrarKind)

	n, err = r.Get("base-testnet")
	require.NoError(t, err)
	assert.Equal(t, "base-sepolia", n.Name)
	assert.Equal(t, uint64(2147568180), n.AddressCoinType())

	n, err = r.GetByID(84532)
	require.NoError(t, err)
	assert.Equal(t, "basetest.eth", n.ParentDomain)

	assert.Len(t, r.All(), 2)
	for _, n := range r.All() {
		require.NoError(t, n.Validate(), n.Name)
	}
}

func TestGetSuggestsClosestName(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	_, err = r.Get("basesep")
	require.ErrorIs(t, err, ErrNetworkNotFound)
	assert.Contains(t, err.Error(), "did you mean 'base-sepolia'")

	_, err = r.Get("zzz")
	require.ErrorIs(t, err, ErrNetworkNotFound)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestCustomNetworksAreLoaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.json"), []byte(customNetworkJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": "x"}`), 0o644))

	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)

	n, err := r.Get("anvil")
	require.NoError(t, err)
	assert.Equal(t, "base-local", n.Name)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), n.Contracts.Registry)
	assert.Equal(t, ReverseRegistrarV2, n.ReverseRegistrarKind)
	assert.Len(t, r.All(), 3)

	_, err = r.Get("x")
	assert.ErrorIs(t, err, ErrNetworkNotFound)
}

func TestAddPersistsNetwork(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)

	n, err := NewNetworkFromJSON([]byte(customNetworkJSON))
	require.NoError(t, err)
	require.NoError(t, r.Add(n))

	reloaded, err := NewRegistry(dir, nil)
	require.NoError(t, err)
	got, err := reloaded.GetByID(31337)
	require.NoError(t, err)
	assert.Equal(t, n.Contracts, got.Contracts)
	assert.Equal(t, "http://localhost:8000/graphql", got.IndexURL)
}

func TestCustomNetworkOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	override := BaseSepolia
	override.IndexURL = "http://index.local/graphql"
	content, err := override.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base-sepolia.json"), content, 0o644))

	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)
	n, err := r.Get("base-sepolia")
	require.NoError(t, err)
	assert.Equal(t, "http://index.local/graphql", n.IndexURL)
	assert.Len(t, r.All(), 2)
}

func TestNodesIncludesEnvOverride(t *testing.T) {
	t.Setenv("BASE_SEPOLIA_NODE", " http://my-node:8545 ")
	nodes := BaseSepolia.Nodes()
	assert.Equal(t, "http://my-node:8545", nodes["custom-node"])
	assert.Equal(t, "https://sepolia.base.org", nodes["public-base-sepolia"])
	assert.NotContains(t, BaseSepolia.DefaultNodes, "custom-node")
}

func TestValidateRejectsUnknownReverseKind(t *testing.T) {
	n := BaseSepolia
	n.ReverseRegistrarKind = "v3"
	assert.Error(t, n.Validate())
}
