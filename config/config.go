package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNetwork      = "base-sepolia"
	DefaultIndexTimeout = 3 * time.Second
	DefaultRPCTimeout   = 10 * time.Second
)

// Config is the user's ~/.bnames/config.yaml. Flags override it field by
// field in the cmd package.
type Config struct {
	Network      string            `yaml:"network"`
	KeyFile      string            `yaml:"key_file"`
	IndexTimeout time.Duration     `yaml:"index_timeout"`
	RPCTimeout   time.Duration     `yaml:"rpc_timeout"`
	LogLevel     string            `yaml:"log_level"`
	IndexURLs    map[string]string `yaml:"index_urls"` // network name -> endpoint
	NetworksDir  string            `yaml:"networks_dir"`
}

func Default() Config {
	return Config{
		Network:      DefaultNetwork,
		IndexTimeout: DefaultIndexTimeout,
		RPCTimeout:   DefaultRPCTimeout,
		LogLevel:     "warn",
	}
}

func Dir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".bnames"), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path on top of Default(). A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config.load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("config.load %s: invalid yaml: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config.load %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("network must not be empty")
	}
	if c.IndexTimeout <= 0 {
		return fmt.Errorf("index_timeout must be positive, got %s", c.IndexTimeout)
	}
	if c.RPCTimeout <= 0 {
		return fmt.Errorf("rpc_timeout must be positive, got %s", c.RPCTimeout)
	}
	return nil
}

// IndexURL returns the configured index endpoint for network, or fallback.
func (c Config) IndexURL(network, fallback string) string {
	if u, ok := c.IndexURLs[network]; ok && u != "" {
		return u
	}
	return fallback
}
