package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
network: base
key_file: /keys/deployer.json
index_timeout: 1500ms
index_urls:
  base: https://index.example/graphql
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "base", cfg.Network)
	assert.Equal(t, "/keys/deployer.json", cfg.KeyFile)
	assert.Equal(t, 1500*time.Millisecond, cfg.IndexTimeout)
	assert.Equal(t, DefaultRPCTimeout, cfg.RPCTimeout)
	assert.Equal(t, "https://index.example/graphql", cfg.IndexURL("base", "fallback"))
	assert.Equal(t, "fallback", cfg.IndexURL("base-sepolia", "fallback"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("network: [unclosed"), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("rpc_timeout: -1s"), 0o600))
	_, err = Load(negative)
	assert.ErrorContains(t, err, "rpc_timeout")
}
