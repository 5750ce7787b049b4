package util

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/tranvictor/bnames/config"
	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/index"
	"github.com/tranvictor/bnames/logging"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/registrar"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/ui"
	"github.com/tranvictor/bnames/util/account"
	"github.com/tranvictor/bnames/util/broadcaster"
	"github.com/tranvictor/bnames/util/monitor"
	"github.com/tranvictor/bnames/util/reader"
	"github.com/tranvictor/bnames/util/txsender"
	"github.com/tranvictor/bnames/workflow"
	"github.com/tranvictor/bnames/writer"
)

// Options are the persistent flags. Empty values fall back to the config
// file.
type Options struct {
	ConfigPath string
	Network    string
	KeyFile    string
	Verbose    bool
	DryRun     bool
}

// Session holds every per-network handle a command needs. It is built once
// per invocation by the root command and reached through the cobra
// context. The signer is only loaded by commands that write.
type Session struct {
	Config   config.Config
	Networks *networks.Registry
	Network  networks.Network
	Logger   *slog.Logger
	UI       ui.UI
	DryRun   bool

	caller   contracts.Caller
	index    *index.Client
	engine   *resolution.Engine
	endpoint string

	transactor     txsender.Transactor
	loadTransactor func(ctx context.Context) (txsender.Transactor, error)
}

// NewSession loads the config file, picks the network and connects the
// readers. Nothing is dialed for the signer yet.
func NewSession(opts Options, u ui.UI) (*Session, error) {
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Network != "" {
		cfg.Network = opts.Network
	}
	if opts.KeyFile != "" {
		cfg.KeyFile = opts.KeyFile
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	dir := cfg.NetworksDir
	if dir == "" {
		if dir, err = networks.DefaultDir(); err != nil {
			return nil, err
		}
	}
	registry, err := networks.NewRegistry(dir, logger)
	if err != nil {
		return nil, err
	}
	n, err := registry.Get(cfg.Network)
	if err != nil {
		return nil, err
	}

	r := reader.NewEthReader(n.Nodes(), cfg.RPCTimeout)
	idx := index.NewClient(cfg.IndexURL(n.Name, n.IndexURL), cfg.IndexTimeout, logger)

	s := &Session{
		Config:   cfg,
		Networks: registry,
		Network:  n,
		Logger:   logger.With("network", n.Name),
		UI:       u,
		DryRun:   opts.DryRun,
		caller:   r,
		index:    idx,
		endpoint: r.Endpoints(),
	}
	s.engine = resolution.NewEngine(n, r, idx, logger).WithEndpoint(s.endpoint)
	s.loadTransactor = func(ctx context.Context) (txsender.Transactor, error) {
		return s.dialSigner(ctx, r)
	}
	return s, nil
}

// NewChainSession builds a session over an existing chain connection and
// signer, with no index. transactor may be nil for read-only use.
func NewChainSession(n networks.Network, caller contracts.Caller, transactor txsender.Transactor, u ui.UI, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		Config:     config.Default(),
		Network:    n,
		Logger:     logger,
		UI:         u,
		caller:     caller,
		engine:     resolution.NewEngine(n, caller, nil, logger),
		transactor: transactor,
	}
}

func (s *Session) dialSigner(ctx context.Context, r *reader.EthReader) (txsender.Transactor, error) {
	if s.Config.KeyFile == "" {
		return nil, fmt.Errorf("no signing key: pass --key or set key_file in the config file")
	}
	acc, err := account.LoadAccount(s.Config.KeyFile, func() (string, error) {
		return s.UI.Secret("Keystore password")
	})
	if err != nil {
		return nil, err
	}

	chainID, err := r.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't get chain id from %s: %w", s.endpoint, err)
	}
	if chainID.Uint64() != s.Network.ChainID {
		return nil, fmt.Errorf("nodes of %s report chain id %s, expected %d", s.Network.Name, chainID, s.Network.ChainID)
	}

	b, err := broadcaster.NewGenericBroadcaster(ctx, s.Network.Nodes(), s.Config.RPCTimeout)
	if err != nil {
		return nil, err
	}
	m := monitor.NewTxMonitor(r, s.Network.GetBlockTime())
	s.Logger.Debug("signer loaded", "address", acc.Address().Hex())
	return txsender.NewSender(new(big.Int).SetUint64(s.Network.ChainID), r, b, m, acc, s.Logger), nil
}

func (s *Session) Caller() contracts.Caller { return s.caller }

func (s *Session) Engine() *resolution.Engine { return s.engine }

// Transactor loads the signer on first use.
func (s *Session) Transactor(ctx context.Context) (txsender.Transactor, error) {
	if s.transactor != nil {
		return s.transactor, nil
	}
	if s.loadTransactor == nil {
		return nil, fmt.Errorf("no signer available")
	}
	t, err := s.loadTransactor(ctx)
	if err != nil {
		return nil, err
	}
	s.transactor = t
	return t, nil
}

func (s *Session) Executor(ctx context.Context) (*txsender.Executor, error) {
	t, err := s.Transactor(ctx)
	if err != nil {
		return nil, err
	}
	return &txsender.Executor{
		Transactor:    t,
		Network:       s.Network.Name,
		Confirmations: txsender.DefaultConfirmations,
		DryRun:        s.DryRun,
		Logger:        s.Logger,
	}, nil
}

func (s *Session) Writer(ctx context.Context) (*writer.Writer, error) {
	exec, err := s.Executor(ctx)
	if err != nil {
		return nil, err
	}
	var inv writer.Invalidator
	if s.index != nil {
		inv = s.index
	}
	return writer.New(s.engine, s.caller, exec, inv, s.Logger), nil
}

func (s *Session) Registrar(ctx context.Context) (*registrar.Registrar, error) {
	exec, err := s.Executor(ctx)
	if err != nil {
		return nil, err
	}
	return registrar.New(s.Network, s.caller, exec, s.Logger), nil
}

// Quoter is a registrar without a signer, for Quote only.
func (s *Session) Quoter() *registrar.Registrar {
	return registrar.New(s.Network, s.caller, nil, s.Logger)
}

func (s *Session) Workflow(ctx context.Context) (*workflow.Workflow, error) {
	w, err := s.Writer(ctx)
	if err != nil {
		return nil, err
	}
	return workflow.New(w, s.engine, s.caller, s.Logger), nil
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom retrieves the session attached to cmd by the root pre-run
// hook.
func SessionFrom(cmd *cobra.Command) (*Session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("%s: no session", cmd.Name())
	}
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("%s: no session", cmd.Name())
	}
	return s, nil
}
