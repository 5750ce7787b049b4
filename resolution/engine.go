// Package resolution answers name, address, resolver and text queries. The
// index service is asked first; anything it cannot answer falls through to
// the registry and resolver contracts, which are authoritative.
package resolution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/index"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
)

type Kind string

const (
	KindAddress     Kind = "address"
	KindPrimaryName Kind = "primary_name"
	KindResolver    Kind = "resolver"
	KindText        Kind = "text"
)

type Source string

const (
	SourceIndex Source = "index"
	SourceChain Source = "chain"
)

type Query struct {
	Kind    Kind
	Name    string         // address, resolver and text queries
	Address common.Address // primary name queries
	Key     string         // text queries
	// CoinType of an address query, 0 means the network's own coin type.
	CoinType uint64
}

type Record struct {
	Kind     Kind
	Name     string // full normalized name, or the primary name
	Node     common.Hash
	Value    string
	Address  common.Address
	Found    bool
	Source   Source
	Resolver common.Address
}

// Index is the part of *index.Client the engine reads from.
type Index interface {
	Domain(ctx context.Context, name string) (*index.Domain, error)
	PrimaryName(ctx context.Context, addr common.Address) (string, error)
}

type Engine struct {
	network  networks.Network
	caller   contracts.Caller
	index    Index
	registry *contracts.Registry
	reverse  *contracts.ReverseRegistrar
	endpoint string
	logger   *slog.Logger
}

// NewEngine builds an engine for n reading the chain through caller. idx
// may be nil, in which case every query goes to the chain.
func NewEngine(n networks.Network, caller contracts.Caller, idx Index, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		network:  n,
		caller:   caller,
		index:    idx,
		registry: contracts.NewRegistry(n.Contracts.Registry, caller),
		reverse: contracts.NewReverseRegistrar(
			n.Contracts.ReverseRegistrar,
			n.ReverseRegistrarKind == networks.ReverseRegistrarV1,
			caller,
		),
		logger: logger.With("network", n.Name),
	}
}

// WithEndpoint records the RPC endpoints used, for error reports.
func (e *Engine) WithEndpoint(endpoint string) *Engine {
	e.endpoint = endpoint
	return e
}

func (e *Engine) Network() networks.Network { return e.network }

// WithoutIndex returns an engine that only reads the chain. Decisions that
// lead to a write are taken on its answers.
func (e *Engine) WithoutIndex() *Engine {
	c := *e
	c.index = nil
	return &c
}

func (e *Engine) rpcError(op string, node common.Hash, contract common.Address, err error) error {
	return &errs.Error{
		Kind:     errs.KindRPC,
		Op:       op,
		Network:  e.network.Name,
		Node:     node.Hex(),
		Contract: contract.Hex(),
		Endpoint: e.endpoint,
		Err:      err,
	}
}

func (e *Engine) noResolver(op string, node common.Hash, name string) error {
	return &errs.Error{
		Kind:     errs.KindNoResolver,
		Op:       op,
		Network:  e.network.Name,
		Node:     node.Hex(),
		Contract: e.network.Contracts.Registry.Hex(),
		Reason:   name,
	}
}

// Resolve runs q against the index, then the chain. Index failures are
// logged at debug level and never returned.
func (e *Engine) Resolve(ctx context.Context, q Query) (Record, error) {
	if q.Kind == KindPrimaryName {
		return e.resolvePrimary(ctx, q.Address)
	}

	name, err := namehash.Parse(q.Name, e.network.ParentDomain)
	if err != nil {
		return Record{}, err
	}
	if q.Kind == KindAddress && q.CoinType == 0 {
		q.CoinType = e.network.AddressCoinType()
	}
	rec := Record{Kind: q.Kind, Name: name.Full, Node: name.Node}

	if r, ok := e.fromIndex(ctx, q, name.Full); ok {
		r.Kind, r.Name, r.Node = rec.Kind, rec.Name, rec.Node
		return r, nil
	}

	resolver, err := e.registry.Resolver(ctx, name.Node)
	if err != nil {
		return Record{}, e.rpcError("resolve "+string(q.Kind), name.Node, e.network.Contracts.Registry, err)
	}
	if resolver == (common.Address{}) {
		return Record{}, e.noResolver("resolve "+string(q.Kind), name.Node, name.Full)
	}
	rec.Source = SourceChain
	rec.Resolver = resolver

	r := contracts.NewResolver(resolver, e.caller)
	switch q.Kind {
	case KindResolver:
		rec.Address = resolver
		rec.Value = resolver.Hex()
		rec.Found = true
	case KindAddress:
		addr, err := r.Addr(ctx, name.Node, q.CoinType)
		if err != nil {
			return Record{}, e.rpcError("resolve address", name.Node, resolver, err)
		}
		rec.Address = addr
		rec.Found = addr != (common.Address{})
		if rec.Found {
			rec.Value = addr.Hex()
		}
	case KindText:
		value, err := r.Text(ctx, name.Node, q.Key)
		if err != nil {
			return Record{}, e.rpcError("resolve text "+q.Key, name.Node, resolver, err)
		}
		rec.Value = value
		rec.Found = value != ""
	default:
		return Record{}, fmt.Errorf("unknown query kind %q", q.Kind)
	}
	return rec, nil
}

// fromIndex answers q from the index when the index has the field.
func (e *Engine) fromIndex(ctx context.Context, q Query, full string) (Record, bool) {
	if e.index == nil {
		return Record{}, false
	}
	d, err := e.index.Domain(ctx, full)
	if err != nil {
		e.logger.Debug("index lookup failed, using chain", "name", full, "error", err)
		return Record{}, false
	}
	rec := Record{Source: SourceIndex, Found: true, Resolver: d.Resolver}
	switch q.Kind {
	case KindResolver:
		if d.Resolver == (common.Address{}) {
			break
		}
		rec.Address = d.Resolver
		rec.Value = d.Resolver.Hex()
		return rec, true
	case KindAddress:
		// the index only tracks the network's own coin type
		if q.CoinType != e.network.AddressCoinType() || d.Address == (common.Address{}) {
			break
		}
		rec.Address = d.Address
		rec.Value = d.Address.Hex()
		return rec, true
	case KindText:
		value, ok := d.Texts[q.Key]
		if !ok || value == "" {
			break
		}
		rec.Value = value
		return rec, true
	}
	e.logger.Debug("field absent from index, using chain", "name", full, "kind", q.Kind)
	return Record{}, false
}

func (e *Engine) resolvePrimary(ctx context.Context, addr common.Address) (Record, error) {
	rec := Record{Kind: KindPrimaryName, Address: addr}
	if e.index != nil {
		name, err := e.index.PrimaryName(ctx, addr)
		if err == nil {
			rec.Name, rec.Value, rec.Found, rec.Source = name, name, true, SourceIndex
			return rec, nil
		}
		e.logger.Debug("index primary name lookup failed, using chain", "address", addr.Hex(), "error", err)
	}

	node, err := e.ReverseNode(ctx, addr)
	if err != nil {
		return Record{}, err
	}
	rec.Node = node
	resolver, err := e.registry.Resolver(ctx, node)
	if err != nil {
		return Record{}, e.rpcError("resolve primary name", node, e.network.Contracts.Registry, err)
	}
	if resolver == (common.Address{}) {
		return Record{}, e.noResolver("resolve primary name", node, addr.Hex())
	}
	name, err := contracts.NewResolver(resolver, e.caller).Name(ctx, node)
	if err != nil {
		return Record{}, e.rpcError("resolve primary name", node, resolver, err)
	}
	rec.Source = SourceChain
	rec.Resolver = resolver
	rec.Name, rec.Value, rec.Found = name, name, name != ""
	return rec, nil
}

// ReverseNode is computed locally when the network declares its reverse
// domain, otherwise the reverse registrar is asked.
func (e *Engine) ReverseNode(ctx context.Context, addr common.Address) (common.Hash, error) {
	if e.network.ReverseDomain != "" {
		return namehash.ReverseNode(addr, e.network.ReverseDomain)
	}
	node, err := e.reverse.Node(ctx, addr)
	if err != nil {
		return common.Hash{}, e.rpcError("reverse node", common.Hash{}, e.network.Contracts.ReverseRegistrar, err)
	}
	return node, nil
}

// EffectiveResolver returns the resolver of name, or of its nearest
// ancestor that has one. The walk stops at the top-level name under the
// parent domain; the parent domain's own resolver is never used.
func (e *Engine) EffectiveResolver(ctx context.Context, name namehash.Name) (common.Address, error) {
	candidates := []string{name.Full}
	for current := name; len(current.Labels) > 0; {
		parent := current.ParentName()
		if parent == name.Parent {
			break
		}
		candidates = append(candidates, parent)
		next, err := namehash.Parse(parent, name.Parent)
		if err != nil {
			return common.Address{}, err
		}
		current = next
	}

	for _, candidate := range candidates {
		node, err := namehash.NameHash(candidate)
		if err != nil {
			return common.Address{}, err
		}
		resolver, err := e.registry.Resolver(ctx, node)
		if err != nil {
			return common.Address{}, e.rpcError("effective resolver", node, e.network.Contracts.Registry, err)
		}
		if resolver != (common.Address{}) {
			if candidate != name.Full {
				e.logger.Debug("using ancestor resolver", "name", name.Full, "ancestor", candidate)
			}
			return resolver, nil
		}
	}
	return common.Address{}, e.noResolver("effective resolver", name.Node, name.Full)
}

// Convenience wrappers.

func (e *Engine) Address(ctx context.Context, name string, coinType uint64) (Record, error) {
	return e.Resolve(ctx, Query{Kind: KindAddress, Name: name, CoinType: coinType})
}

func (e *Engine) PrimaryName(ctx context.Context, addr common.Address) (Record, error) {
	return e.Resolve(ctx, Query{Kind: KindPrimaryName, Address: addr})
}

func (e *Engine) Resolver(ctx context.Context, name string) (Record, error) {
	return e.Resolve(ctx, Query{Kind: KindResolver, Name: name})
}

func (e *Engine) Text(ctx context.Context, name, key string) (Record, error) {
	return e.Resolve(ctx, Query{Kind: KindText, Name: name, Key: key})
}
