package txsender

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/util/monitor"
)

// DefaultConfirmations is how many blocks every write waits for after the
// block that includes it.
const DefaultConfirmations = 2

type Outcome struct {
	Hash    common.Hash
	Receipt *types.Receipt
	DryRun  bool
}

// Executor runs the simulate, send, wait pipeline for one network.
type Executor struct {
	Transactor    Transactor
	Network       string
	Confirmations uint64
	// DryRun stops after a successful simulation.
	DryRun bool
	Logger *slog.Logger
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

func (e *Executor) fail(kind errs.Kind, call contracts.Call, node common.Hash, reason string, err error) *errs.Error {
	out := &errs.Error{
		Kind:     kind,
		Op:       call.Method,
		Network:  e.Network,
		Contract: call.To.Hex(),
		Reason:   reason,
		Err:      err,
	}
	if node != (common.Hash{}) {
		out.Node = node.Hex()
	}
	return out
}

// Execute submits call on behalf of the name identified by node. A reverted
// simulation returns KindSimulationFailed and nothing is sent. A simulation
// that never reached the contract returns KindRPC. A mined but failed tx
// returns KindTransactionReverted.
func (e *Executor) Execute(ctx context.Context, node common.Hash, call contracts.Call) (Outcome, error) {
	log := e.logger().With("method", call.Method, "to", call.To.Hex())

	if err := e.Transactor.Simulate(ctx, call); err != nil {
		if !IsRevert(err) {
			log.Debug("couldn't simulate tx", "error", err)
			return Outcome{}, e.fail(errs.KindRPC, call, node, "couldn't simulate tx", err)
		}
		reason := RevertReason(err)
		log.Debug("simulation failed", "reason", reason, "error", err)
		return Outcome{}, e.fail(errs.KindSimulationFailed, call, node, reason, err)
	}
	if e.DryRun {
		log.Info("dry run, tx not sent")
		return Outcome{DryRun: true}, nil
	}

	hash, err := e.Transactor.Send(ctx, call)
	if err != nil {
		return Outcome{Hash: hash}, e.fail(errs.KindRPC, call, node, "couldn't send tx", err)
	}
	log.Info("tx sent", "hash", hash.Hex())

	confirmations := e.Confirmations
	if confirmations == 0 {
		confirmations = DefaultConfirmations
	}
	receipt, err := e.Transactor.WaitMined(ctx, hash, confirmations)
	if err != nil {
		reason := "couldn't confirm tx " + hash.Hex()
		if errors.Is(err, monitor.ErrLost) {
			reason = "tx " + hash.Hex() + " was not mined"
		}
		return Outcome{Hash: hash}, e.fail(errs.KindRPC, call, node, reason, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Outcome{Hash: hash, Receipt: receipt},
			e.fail(errs.KindTransactionReverted, call, node, "tx "+hash.Hex(), nil)
	}
	log.Info("tx confirmed", "hash", hash.Hex(), "block", receipt.BlockNumber)
	return Outcome{Hash: hash, Receipt: receipt}, nil
}
