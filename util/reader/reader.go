package reader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const DefaultTimeout = 4 * time.Second

var ErrNoNodes = errors.New("no rpc nodes configured")

// EthReader sends every read to all of its nodes and returns the first
// successful answer. It only fails when every node fails.
type EthReader struct {
	nodes   map[string]EthereumNode
	timeout time.Duration
}

// NewEthReader builds a reader over name -> url endpoints. A zero timeout
// means DefaultTimeout.
func NewEthReader(nodes map[string]string, timeout time.Duration) *EthReader {
	ns := make([]EthereumNode, 0, len(nodes))
	for name, url := range nodes {
		ns = append(ns, NewOneNodeReader(name, url))
	}
	return NewEthReaderFromNodes(timeout, ns...)
}

func NewEthReaderFromNodes(timeout time.Duration, nodes ...EthereumNode) *EthReader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ns := map[string]EthereumNode{}
	for _, n := range nodes {
		ns[n.NodeName()] = n
	}
	return &EthReader{nodes: ns, timeout: timeout}
}

// Endpoints lists node names and urls, for error context.
func (er *EthReader) Endpoints() string {
	res := make([]string, 0, len(er.nodes))
	for name, n := range er.nodes {
		res = append(res, fmt.Sprintf("%s=%s", name, n.NodeURL()))
	}
	sort.Strings(res)
	return strings.Join(res, ",")
}

func wrapError(e error, name string) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, e)
}

type nodeResult[T any] struct {
	Value T
	Error error
}

func fanOut[T any](ctx context.Context, er *EthReader, f func(ctx context.Context, n EthereumNode) (T, error)) (T, error) {
	var zero T
	if len(er.nodes) == 0 {
		return zero, ErrNoNodes
	}
	timeout, cancel := context.WithTimeout(ctx, er.timeout)
	defer cancel()

	resCh := make(chan nodeResult[T], len(er.nodes))
	for _, n := range er.nodes {
		go func() {
			v, err := f(timeout, n)
			resCh <- nodeResult[T]{
				Value: v,
				Error: wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Value, nil
		}
		errs = append(errs, result.Error)
	}
	return zero, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) ChainID(ctx context.Context) (*big.Int, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (*big.Int, error) {
		return n.ChainID(ctx)
	})
}

func (er *EthReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) ([]byte, error) {
		return n.CallContract(ctx, msg, blockNumber)
	})
}

func (er *EthReader) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (uint64, error) {
		return n.EstimateGas(ctx, msg)
	})
}

func (er *EthReader) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (uint64, error) {
		return n.PendingNonceAt(ctx, account)
	})
}

func (er *EthReader) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (*big.Int, error) {
		return n.SuggestGasTipCap(ctx)
	})
}

// HeaderByNumber returns the latest header when number is nil.
func (er *EthReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (*types.Header, error) {
		return n.HeaderByNumber(ctx, number)
	})
}

func (er *EthReader) BlockNumber(ctx context.Context) (uint64, error) {
	header, err := er.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// TransactionReceipt wraps ethereum.NotFound when no node has mined hash.
func (er *EthReader) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return fanOut(ctx, er, func(ctx context.Context, n EthereumNode) (*types.Receipt, error) {
		return n.TransactionReceipt(ctx, hash)
	})
}
