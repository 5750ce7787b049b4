// Package writer changes records: text and address records, primary
// names, ownership and subnames. Every write is simulated first and waits
// for confirmation before returning.
package writer

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/util/txsender"
)

// Invalidator drops cached index answers after a write. *index.Client
// satisfies it.
type Invalidator interface {
	Invalidate(name string)
	InvalidateAddress(addr common.Address)
}

type noInvalidation struct{}

func (noInvalidation) Invalidate(string)                {}
func (noInvalidation) InvalidateAddress(common.Address) {}

type Result struct {
	Name     string
	Node     common.Hash
	Resolver common.Address
	TxHash   common.Hash
	DryRun   bool
}

type Writer struct {
	network  networks.Network
	caller   contracts.Caller
	engine   *resolution.Engine
	exec     *txsender.Executor
	registry *contracts.Registry
	reverse  *contracts.ReverseRegistrar
	index    Invalidator
	logger   *slog.Logger
}

func New(
	engine *resolution.Engine,
	caller contracts.Caller,
	exec *txsender.Executor,
	idx Invalidator,
	logger *slog.Logger,
) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if idx == nil {
		idx = noInvalidation{}
	}
	n := engine.Network()
	return &Writer{
		network:  n,
		caller:   caller,
		engine:   engine,
		exec:     exec,
		registry: contracts.NewRegistry(n.Contracts.Registry, caller),
		reverse: contracts.NewReverseRegistrar(
			n.Contracts.ReverseRegistrar,
			n.ReverseRegistrarKind == networks.ReverseRegistrarV1,
			caller,
		),
		index:  idx,
		logger: logger.With("network", n.Name),
	}
}

// Signer is the address every tx is sent from.
func (w *Writer) Signer() common.Address {
	return w.exec.Transactor.From()
}

func (w *Writer) Network() networks.Network { return w.network }

func (w *Writer) parse(name string) (namehash.Name, error) {
	return namehash.Parse(name, w.network.ParentDomain)
}

// resolverFor returns resolver when set, otherwise the resolver the
// registry holds for the name. The index is never asked: writes must hit
// the resolver the registry points at.
func (w *Writer) resolverFor(ctx context.Context, name namehash.Name, resolver common.Address) (common.Address, error) {
	if resolver != (common.Address{}) {
		return resolver, nil
	}
	onchain, err := w.registry.Resolver(ctx, name.Node)
	if err != nil {
		return common.Address{}, w.rpcError("resolver", name.Node, err)
	}
	if onchain == (common.Address{}) {
		return common.Address{}, &errs.Error{
			Kind:     errs.KindNoResolver,
			Op:       "resolver",
			Network:  w.network.Name,
			Node:     name.Node.Hex(),
			Contract: w.network.Contracts.Registry.Hex(),
			Reason:   name.Full,
		}
	}
	return onchain, nil
}

func (w *Writer) rpcError(op string, node common.Hash, err error) error {
	return &errs.Error{
		Kind:     errs.KindRPC,
		Op:       op,
		Network:  w.network.Name,
		Node:     node.Hex(),
		Contract: w.network.Contracts.Registry.Hex(),
		Err:      err,
	}
}

func (w *Writer) submit(ctx context.Context, name string, node common.Hash, call contracts.Call) (Result, error) {
	out, err := w.exec.Execute(ctx, node, call)
	if err != nil {
		return Result{Name: name, Node: node, TxHash: out.Hash}, err
	}
	if !out.DryRun && name != "" {
		w.index.Invalidate(name)
	}
	return Result{Name: name, Node: node, TxHash: out.Hash, DryRun: out.DryRun}, nil
}

// SetText writes key=value on name. A zero resolver is looked up.
func (w *Writer) SetText(ctx context.Context, name, key, value string, resolver common.Address) (Result, error) {
	n, err := w.parse(name)
	if err != nil {
		return Result{}, err
	}
	resolver, err = w.resolverFor(ctx, n, resolver)
	if err != nil {
		return Result{}, err
	}
	call, err := contracts.NewResolver(resolver, w.caller).SetText(n.Node, key, value)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info("setting text record", "name", n.Full, "key", key)
	res, err := w.submit(ctx, n.Full, n.Node, call)
	res.Resolver = resolver
	return res, err
}

// SetAddress writes the coinType address record of name. Coin type 0
// means the network's own coin type.
func (w *Writer) SetAddress(ctx context.Context, name string, coinType uint64, addr, resolver common.Address) (Result, error) {
	n, err := w.parse(name)
	if err != nil {
		return Result{}, err
	}
	if coinType == 0 {
		coinType = w.network.AddressCoinType()
	}
	resolver, err = w.resolverFor(ctx, n, resolver)
	if err != nil {
		return Result{}, err
	}
	call, err := contracts.NewResolver(resolver, w.caller).SetAddr(n.Node, coinType, addr)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info("setting address record", "name", n.Full, "coin_type", coinType, "address", addr.Hex())
	res, err := w.submit(ctx, n.Full, n.Node, call)
	res.Resolver = resolver
	return res, err
}

// SetPrimaryName points the reverse record of target at name. The signer
// uses setName for itself and setNameForAddr, in the network's variant,
// for anything else it controls.
func (w *Writer) SetPrimaryName(ctx context.Context, target common.Address, name string) (Result, error) {
	n, err := w.parse(name)
	if err != nil {
		return Result{}, err
	}
	var call contracts.Call
	if target == w.Signer() {
		call, err = w.reverse.SetName(n.Full)
	} else {
		call, err = w.reverse.SetNameForAddr(target, target, w.network.Contracts.Resolver, n.Full)
	}
	if err != nil {
		return Result{}, err
	}
	node, err := w.engine.ReverseNode(ctx, target)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info("setting primary name", "address", target.Hex(), "name", n.Full)
	res, err := w.submit(ctx, "", node, call)
	if err == nil && !res.DryRun {
		w.index.InvalidateAddress(target)
	}
	res.Name = n.Full
	res.Resolver = w.network.Contracts.Resolver
	return res, err
}

// SetOwner transfers name to owner in the registry.
func (w *Writer) SetOwner(ctx context.Context, name string, owner common.Address) (Result, error) {
	n, err := w.parse(name)
	if err != nil {
		return Result{}, err
	}
	call, err := w.registry.SetOwner(n.Node, owner)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info("transferring name", "name", n.Full, "owner", owner.Hex())
	return w.submit(ctx, n.Full, n.Node, call)
}

// CreateSubname creates label under parent owned by owner. A zero resolver
// means the parent's resolver, or the network default when the parent has
// none.
func (w *Writer) CreateSubname(ctx context.Context, parent, label string, owner, resolver common.Address) (Result, error) {
	p, err := w.parse(parent)
	if err != nil {
		return Result{}, err
	}
	labelHash, err := namehash.LabelHash(label)
	if err != nil {
		return Result{}, err
	}
	child, err := w.parse(label + "." + p.Full)
	if err != nil {
		return Result{}, err
	}
	if resolver == (common.Address{}) {
		resolver, err = w.registry.Resolver(ctx, p.Node)
		if err != nil {
			return Result{}, w.rpcError("parent resolver", p.Node, err)
		}
		if resolver == (common.Address{}) {
			resolver = w.network.Contracts.Resolver
		}
	}
	call, err := w.registry.SetSubnodeRecord(p.Node, labelHash, owner, resolver, 0)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info("creating subname", "name", child.Full, "owner", owner.Hex(), "resolver", resolver.Hex())
	res, err := w.submit(ctx, child.Full, child.Node, call)
	res.Resolver = resolver
	return res, err
}
