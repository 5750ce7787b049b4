// Package registrar quotes and registers top-level names through the
// registrar controller.
package registrar

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/util/txsender"
)

const SecondsPerYear = 31536000

type Request struct {
	Label string
	Years int
	// Owner of the new name, the signer when zero.
	Owner common.Address
	// Resolver for the new name, the network default when zero.
	Resolver common.Address
	// Primary also points the owner's reverse record at the new name.
	Primary bool
}

type Quote struct {
	Name      namehash.Name
	Available bool
	Duration  *big.Int
	Price     *big.Int
}

type Result struct {
	Quote
	Owner  common.Address
	TxHash common.Hash
	DryRun bool
}

type Registrar struct {
	network    networks.Network
	controller *contracts.RegistrarController
	exec       *txsender.Executor
	logger     *slog.Logger
}

func New(n networks.Network, caller contracts.Caller, exec *txsender.Executor, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registrar{
		network:    n,
		controller: contracts.NewRegistrarController(n.Contracts.RegistrarController, caller),
		exec:       exec,
		logger:     logger.With("network", n.Name),
	}
}

func (r *Registrar) rpcError(op string, node common.Hash, err error) error {
	return &errs.Error{
		Kind:     errs.KindRPC,
		Op:       op,
		Network:  r.network.Name,
		Node:     node.Hex(),
		Contract: r.network.Contracts.RegistrarController.Hex(),
		Err:      err,
	}
}

// parseLabel accepts "coolname" or "coolname.<parent domain>".
func (r *Registrar) parseLabel(label string) (namehash.Name, error) {
	name, err := namehash.Parse(label, r.network.ParentDomain)
	if err != nil {
		return namehash.Name{}, err
	}
	if !name.IsTopLevel() {
		return namehash.Name{}, errs.InvalidName(label, fmt.Errorf("only names directly under %s can be registered", r.network.ParentDomain))
	}
	return name, nil
}

func duration(years int) (*big.Int, error) {
	if years < 1 {
		return nil, fmt.Errorf("registration must last at least 1 year, got %d", years)
	}
	return new(big.Int).Mul(big.NewInt(int64(years)), big.NewInt(SecondsPerYear)), nil
}

// Quote reports availability and price of label for years.
func (r *Registrar) Quote(ctx context.Context, label string, years int) (Quote, error) {
	name, err := r.parseLabel(label)
	if err != nil {
		return Quote{}, err
	}
	d, err := duration(years)
	if err != nil {
		return Quote{}, err
	}
	available, err := r.controller.Available(ctx, name.Label())
	if err != nil {
		return Quote{}, r.rpcError("available", name.Node, err)
	}
	price, err := r.controller.RegisterPrice(ctx, name.Label(), d)
	if err != nil {
		return Quote{}, r.rpcError("register price", name.Node, err)
	}
	return Quote{Name: name, Available: available, Duration: d, Price: price}, nil
}

// Register buys req.Label. The name's address record is set to the owner
// for both coin type 60 and the network's own coin type.
func (r *Registrar) Register(ctx context.Context, req Request) (Result, error) {
	q, err := r.Quote(ctx, req.Label, req.Years)
	if err != nil {
		return Result{}, err
	}
	if !q.Available {
		return Result{Quote: q}, &errs.Error{
			Kind:     errs.KindConflict,
			Op:       "register",
			Network:  r.network.Name,
			Node:     q.Name.Node.Hex(),
			Contract: r.network.Contracts.RegistrarController.Hex(),
			Reason:   q.Name.Full + " is not available",
		}
	}

	owner := req.Owner
	if owner == (common.Address{}) {
		owner = r.exec.Transactor.From()
	}
	resolver := req.Resolver
	if resolver == (common.Address{}) {
		resolver = r.network.Contracts.Resolver
	}

	records := contracts.NewResolver(resolver, nil)
	data := [][]byte{}
	coinTypes := []uint64{contracts.EthCoinType}
	if ct := r.network.AddressCoinType(); ct != contracts.EthCoinType {
		coinTypes = append(coinTypes, ct)
	}
	for _, ct := range coinTypes {
		call, err := records.SetAddr(q.Name.Node, ct, owner)
		if err != nil {
			return Result{}, err
		}
		data = append(data, call.Data)
	}

	call, err := r.controller.Register(contracts.RegisterRequest{
		Name:          q.Name.Label(),
		Owner:         owner,
		Duration:      q.Duration,
		Resolver:      resolver,
		Data:          data,
		ReverseRecord: req.Primary,
	}, q.Price)
	if err != nil {
		return Result{}, err
	}

	r.logger.Info("registering name",
		"name", q.Name.Full, "owner", owner.Hex(), "years", req.Years, "price_wei", q.Price.String(), "primary", req.Primary)
	out, err := r.exec.Execute(ctx, q.Name.Node, call)
	return Result{Quote: q, Owner: owner, TxHash: out.Hash, DryRun: out.DryRun}, err
}
