package networks

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"sort"

	"github.com/sahilm/fuzzy"
)

var builtinNetworks = []Network{
	BaseMainnet,
	BaseSepolia,
}

var ErrNetworkNotFound = errors.New("network not found")

// Registry maps network names, alternative names and chain ids to
// networks. It is built once per invocation.
type Registry struct {
	dir     string
	byName  map[string]Network
	byID    map[uint64]Network
	primary []string
	logger  *slog.Logger
}

// DefaultDir is ~/.bnames/networks.
func DefaultDir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".bnames", "networks"), nil
}

// NewRegistry loads the built-in networks and then every *.json file in dir.
// A custom network replaces a built-in one with the same name or chain id.
// An empty dir skips custom networks.
func NewRegistry(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		dir:    dir,
		byName: map[string]Network{},
		byID:   map[uint64]Network{},
		logger: logger,
	}
	for _, n := range builtinNetworks {
		if err := r.insert(n, false); err != nil {
			return nil, err
		}
	}
	if dir == "" {
		return r, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob json files in %s: %w", dir, err)
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}
		n, err := NewNetworkFromJSON(content)
		if err != nil {
			logger.Warn("ignoring custom network", "file", file, "error", err)
			continue
		}
		if _, found := r.byName[n.Name]; found {
			logger.Info("custom network overrides existing one", "name", n.Name)
		}
		if err := r.insert(n, true); err != nil {
			logger.Warn("ignoring custom network", "file", file, "error", err)
		}
	}
	return r, nil
}

func (r *Registry) insert(n Network, replace bool) error {
	names := append([]string{n.Name}, n.AlternativeNames...)
	for _, name := range names {
		existing, found := r.byName[name]
		if found && !(replace && (existing.Name == n.Name || existing.ChainID == n.ChainID)) {
			return fmt.Errorf("network with name or alternative name of '%s' already exists", name)
		}
	}
	if old, found := r.byID[n.ChainID]; found && replace {
		r.remove(old)
	}
	if old, found := r.byName[n.Name]; found && replace {
		r.remove(old)
	}
	for _, name := range names {
		r.byName[name] = n
	}
	r.byID[n.ChainID] = n
	r.primary = append(r.primary, n.Name)
	return nil
}

func (r *Registry) remove(n Network) {
	for name, existing := range r.byName {
		if existing.Name == n.Name {
			delete(r.byName, name)
		}
	}
	delete(r.byID, n.ChainID)
	kept := r.primary[:0]
	for _, name := range r.primary {
		if name != n.Name {
			kept = append(kept, name)
		}
	}
	r.primary = kept
}

// Get looks a network up by name or alternative name. An unknown name
// yields ErrNetworkNotFound with the closest known name, if any.
func (r *Registry) Get(name string) (Network, error) {
	n, found := r.byName[name]
	if found {
		return n, nil
	}
	matches := fuzzy.Find(name, r.Names())
	if len(matches) > 0 {
		return Network{}, fmt.Errorf("network name '%s': %w, did you mean '%s'?", name, ErrNetworkNotFound, matches[0].Str)
	}
	return Network{}, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
}

func (r *Registry) GetByID(id uint64) (Network, error) {
	n, found := r.byID[id]
	if !found {
		return Network{}, fmt.Errorf("network id %d: %w", id, ErrNetworkNotFound)
	}
	return n, nil
}

// Names returns every name and alternative name, sorted.
func (r *Registry) Names() []string {
	res := make([]string, 0, len(r.byName))
	for name := range r.byName {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// All returns each network once, in load order.
func (r *Registry) All() []Network {
	res := make([]Network, 0, len(r.primary))
	for _, name := range r.primary {
		res = append(res, r.byName[name])
	}
	return res
}

// Add registers n and stores it as <dir>/<name>.json so later invocations
// pick it up.
func (r *Registry) Add(n Network) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if r.dir == "" {
		return fmt.Errorf("no custom network directory configured")
	}
	if err := r.insert(n, true); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.dir, err)
	}
	content, err := n.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s.json", n.Name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write the new network to file: %w", err)
	}
	return nil
}

func (r *Registry) Dir() string {
	return r.dir
}
