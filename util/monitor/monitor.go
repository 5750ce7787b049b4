package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Status string

const (
	StatusDone     Status = "done"
	StatusReverted Status = "reverted"
	StatusLost     Status = "lost"
)

const (
	DefaultInterval  = 2 * time.Second
	DefaultLostAfter = 3 * time.Minute
)

var ErrLost = errors.New("transaction not found on any node")

type ChainReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type TxInfo struct {
	Status        Status
	Receipt       *types.Receipt
	Confirmations uint64
}

// TxMonitor polls receipts until a tx reaches the requested depth.
type TxMonitor struct {
	reader    ChainReader
	interval  time.Duration
	lostAfter time.Duration
}

func NewTxMonitor(r ChainReader, interval time.Duration) *TxMonitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TxMonitor{reader: r, interval: interval, lostAfter: DefaultLostAfter}
}

func (m *TxMonitor) WithLostAfter(d time.Duration) *TxMonitor {
	m.lostAfter = d
	return m
}

// check returns a non-nil info once hash is mined and confirmations more
// blocks have been mined on top of it. seen reports whether a receipt was
// found at all.
func (m *TxMonitor) check(ctx context.Context, hash common.Hash, confirmations uint64) (info *TxInfo, seen bool, err error) {
	receipt, err := m.reader.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	head, err := m.reader.BlockNumber(ctx)
	if err != nil {
		return nil, true, err
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined < confirmations {
		return nil, true, nil
	}
	status := StatusDone
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = StatusReverted
	}
	return &TxInfo{Status: status, Receipt: receipt, Confirmations: head - mined}, true, nil
}

// BlockingWait returns once hash is mined with confirmations blocks on top
// of its inclusion block, when it is lost, or when ctx is done. A tx is
// lost when no receipt has shown up within lostAfter. Once a receipt has
// been seen only ctx bounds the wait. Transient read errors are retried.
func (m *TxMonitor) BlockingWait(ctx context.Context, hash common.Hash, confirmations uint64) (TxInfo, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	start := time.Now()
	everSeen := false
	var lastErr error
	for {
		info, seen, err := m.check(ctx, hash, confirmations)
		if info != nil {
			return *info, nil
		}
		everSeen = everSeen || seen
		if err != nil {
			lastErr = err
		}
		if !everSeen && time.Since(start) > m.lostAfter {
			if lastErr != nil {
				return TxInfo{Status: StatusLost}, fmt.Errorf("%s: %w (last error: %v)", hash.Hex(), ErrLost, lastErr)
			}
			return TxInfo{Status: StatusLost}, fmt.Errorf("%s: %w", hash.Hex(), ErrLost)
		}
		select {
		case <-ctx.Done():
			return TxInfo{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
