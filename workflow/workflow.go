// Package workflow names a deployed contract: it creates a subname under a
// name the signer owns, points the subname at the contract and, when the
// contract lets the signer do so, makes the subname the contract's primary
// name.
//
// Stages run in order and each waits for its tx to be confirmed. The first
// three are fatal on failure. The reverse stage only ever produces a
// warning: many contracts have no owner() and can't be named in reverse.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/writer"
)

type Stage string

const (
	StageOwnership Stage = "ownership"
	StageSubname   Stage = "subname"
	StageForward   Stage = "forward"
	StageReverse   Stage = "reverse"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusNoop      Status = "no-op"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	// StatusPlanned is a write that passed simulation in a dry run.
	StatusPlanned Status = "planned"
)

type Request struct {
	Contract    common.Address
	Label       string
	Parent      string
	SkipReverse bool
}

type StageResult struct {
	Stage  Stage
	Status Status
	TxHash common.Hash
	Detail string
	Err    error
}

type Result struct {
	RunID    string
	FullName string
	Node     common.Hash
	Stages   []StageResult
	Success  bool
}

// Warnings returns the non-fatal errors of the run.
func (r Result) Warnings() []error {
	out := []error{}
	for _, s := range r.Stages {
		if s.Err != nil && errs.IsKind(s.Err, errs.KindReverseWarning) {
			out = append(out, s.Err)
		}
	}
	return out
}

func (r Result) Stage(stage Stage) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}

type Workflow struct {
	network  networks.Network
	caller   contracts.Caller
	writer   *writer.Writer
	engine   *resolution.Engine
	registry *contracts.Registry
	logger   *slog.Logger
}

// New builds a workflow writing through w. Every read it bases a decision
// on goes to the chain, never to the index.
func New(w *writer.Writer, engine *resolution.Engine, caller contracts.Caller, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := w.Network()
	return &Workflow{
		network:  n,
		caller:   caller,
		writer:   w,
		engine:   engine.WithoutIndex(),
		registry: contracts.NewRegistry(n.Contracts.Registry, caller),
		logger:   logger,
	}
}

type run struct {
	*Workflow
	req    Request
	signer common.Address
	parent namehash.Name
	child  namehash.Name
	log    *slog.Logger
	result Result
	// planned is set once a dry run stage would have sent a tx; later
	// stages depend on its effect and are skipped.
	planned bool
}

func (r *run) record(s StageResult) {
	r.result.Stages = append(r.result.Stages, s)
	attrs := []any{"stage", s.Stage, "status", s.Status}
	if s.TxHash != (common.Hash{}) {
		attrs = append(attrs, "tx", s.TxHash.Hex())
	}
	if s.Err != nil {
		attrs = append(attrs, "error", s.Err)
	}
	r.log.Info("stage done", attrs...)
}

func (r *run) fail(stage Stage, err error) error {
	r.record(StageResult{Stage: stage, Status: StatusFailed, Err: err})
	return err
}

func (r *run) rpcError(op string, node common.Hash, contract common.Address, err error) error {
	return &errs.Error{
		Kind:     errs.KindRPC,
		Op:       op,
		Network:  r.network.Name,
		Node:     node.Hex(),
		Contract: contract.Hex(),
		Err:      err,
	}
}

// Run executes every stage for req. The returned error is the fatal error
// that stopped the run, if any; warnings are in the result only.
func (wf *Workflow) Run(ctx context.Context, req Request) (Result, error) {
	runID := uuid.NewString()
	r := &run{
		Workflow: wf,
		req:      req,
		signer:   wf.writer.Signer(),
		result:   Result{RunID: runID},
	}
	r.log = wf.logger.With("run_id", runID, "network", wf.network.Name, "contract", req.Contract.Hex())

	if _, err := namehash.NormalizeLabel(req.Label); err != nil {
		return r.result, err
	}
	parent, err := namehash.Parse(req.Parent, wf.network.ParentDomain)
	if err != nil {
		return r.result, err
	}
	child, err := namehash.Parse(req.Label+"."+parent.Full, wf.network.ParentDomain)
	if err != nil {
		return r.result, err
	}
	r.parent, r.child = parent, child
	r.result.FullName, r.result.Node = child.Full, child.Node
	r.log = r.log.With("name", child.Full)
	r.log.Info("naming contract", "signer", r.signer.Hex())

	for _, stage := range []func(context.Context) error{r.ownership, r.subname, r.forward} {
		if err := stage(ctx); err != nil {
			return r.result, err
		}
	}
	r.reverse(ctx)
	r.result.Success = true
	return r.result, nil
}

func (r *run) ownership(ctx context.Context) error {
	owner, err := r.registry.Owner(ctx, r.parent.Node)
	if err != nil {
		return r.fail(StageOwnership, r.rpcError("owner", r.parent.Node, r.network.Contracts.Registry, err))
	}
	if owner != r.signer {
		return r.fail(StageOwnership, &errs.Error{
			Kind:     errs.KindOwnership,
			Op:       "ownership check",
			Network:  r.network.Name,
			Node:     r.parent.Node.Hex(),
			Contract: r.network.Contracts.Registry.Hex(),
			Reason:   fmt.Sprintf("%s is owned by %s, not %s", r.parent.Full, owner.Hex(), r.signer.Hex()),
		})
	}
	r.record(StageResult{Stage: StageOwnership, Status: StatusNoop, Detail: "signer owns " + r.parent.Full})
	return nil
}

func (r *run) subname(ctx context.Context) error {
	owner, err := r.registry.Owner(ctx, r.child.Node)
	if err != nil {
		return r.fail(StageSubname, r.rpcError("owner", r.child.Node, r.network.Contracts.Registry, err))
	}
	switch owner {
	case r.signer:
		r.record(StageResult{Stage: StageSubname, Status: StatusNoop, Detail: r.child.Full + " already owned by signer"})
		return nil
	case common.Address{}:
	default:
		return r.fail(StageSubname, &errs.Error{
			Kind:     errs.KindConflict,
			Op:       "create subname",
			Network:  r.network.Name,
			Node:     r.child.Node.Hex(),
			Contract: r.network.Contracts.Registry.Hex(),
			Reason:   fmt.Sprintf("%s is owned by %s", r.child.Full, owner.Hex()),
		})
	}

	res, err := r.writer.CreateSubname(ctx, r.parent.Full, r.req.Label, r.signer, common.Address{})
	if err != nil {
		return r.fail(StageSubname, err)
	}
	r.recordWrite(StageSubname, res, "created "+r.child.Full)
	return nil
}

func (r *run) recordWrite(stage Stage, res writer.Result, detail string) {
	status := StatusSubmitted
	if res.DryRun {
		status = StatusPlanned
		r.planned = true
	}
	r.record(StageResult{Stage: stage, Status: status, TxHash: res.TxHash, Detail: detail})
}

func (r *run) skipPlanned(stage Stage) bool {
	if !r.planned {
		return false
	}
	r.record(StageResult{Stage: stage, Status: StatusSkipped, Detail: "depends on a planned write"})
	return true
}

func (r *run) forward(ctx context.Context) error {
	if r.skipPlanned(StageForward) {
		return nil
	}
	resolver, err := r.engine.EffectiveResolver(ctx, r.child)
	if err != nil {
		return r.fail(StageForward, err)
	}
	coinType := r.network.AddressCoinType()
	current, err := contracts.NewResolver(resolver, r.caller).Addr(ctx, r.child.Node, coinType)
	if err != nil {
		return r.fail(StageForward, r.rpcError("addr", r.child.Node, resolver, err))
	}
	if current == r.req.Contract {
		r.record(StageResult{Stage: StageForward, Status: StatusNoop, Detail: r.child.Full + " already points at the contract"})
		return nil
	}

	res, err := r.writer.SetAddress(ctx, r.child.Full, coinType, r.req.Contract, resolver)
	if err != nil {
		return r.fail(StageForward, err)
	}
	r.recordWrite(StageForward, res, fmt.Sprintf("%s -> %s", r.child.Full, r.req.Contract.Hex()))
	return nil
}

func (r *run) warning(reason string, err error) error {
	w := &errs.Error{
		Kind:     errs.KindReverseWarning,
		Op:       "set primary name",
		Network:  r.network.Name,
		Node:     r.child.Node.Hex(),
		Contract: r.req.Contract.Hex(),
		Reason:   reason,
		Err:      err,
	}
	r.log.Warn("reverse resolution not set, forward resolution is in place", "error", w)
	return w
}

// reverse never fails the run.
func (r *run) reverse(ctx context.Context) {
	if r.req.SkipReverse {
		r.record(StageResult{Stage: StageReverse, Status: StatusSkipped, Detail: "skipped by request"})
		return
	}
	if r.skipPlanned(StageReverse) {
		return
	}

	owner, err := contracts.NewOwnable(r.req.Contract, r.caller).Owner(ctx)
	if err != nil {
		r.record(StageResult{
			Stage:  StageReverse,
			Status: StatusSkipped,
			Detail: "contract has no owner()",
			Err:    r.warning("contract does not expose owner()", err),
		})
		return
	}
	if owner != r.signer {
		r.record(StageResult{
			Stage:  StageReverse,
			Status: StatusFailed,
			Err:    r.warning(fmt.Sprintf("contract owner is %s, not the signer", owner.Hex()), nil),
		})
		return
	}

	current, err := r.engine.PrimaryName(ctx, r.req.Contract)
	if err != nil && !errs.IsKind(err, errs.KindNoResolver) {
		r.record(StageResult{Stage: StageReverse, Status: StatusFailed, Err: r.warning("couldn't read current primary name", err)})
		return
	}
	if err == nil && current.Found && current.Value == r.child.Full {
		r.record(StageResult{Stage: StageReverse, Status: StatusNoop, Detail: "primary name already " + r.child.Full})
		return
	}

	res, err := r.writer.SetPrimaryName(ctx, r.req.Contract, r.child.Full)
	if err != nil {
		r.record(StageResult{Stage: StageReverse, Status: StatusFailed, TxHash: res.TxHash, Err: r.warning("couldn't set primary name", err)})
		return
	}
	r.recordWrite(StageReverse, res, fmt.Sprintf("%s -> %s", r.req.Contract.Hex(), r.child.Full))
}
