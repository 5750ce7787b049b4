package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

const DefaultTimeout = 4 * time.Second

// RawSender is the part of *rpc.Client the broadcaster needs.
type RawSender interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Broadcaster takes a signed tx and sends it to every node it manages.
// A tx is considered broadcasted once at least one node accepted it.
type Broadcaster struct {
	clients map[string]RawSender
	timeout time.Duration
}

func NewBroadcaster(clients map[string]RawSender, timeout time.Duration) *Broadcaster {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Broadcaster{clients: clients, timeout: timeout}
}

// NewGenericBroadcaster dials every node. Nodes that cannot be dialed are
// skipped and reported in the returned error only when none is left.
func NewGenericBroadcaster(ctx context.Context, nodes map[string]string, timeout time.Duration) (*Broadcaster, error) {
	clients := map[string]RawSender{}
	errs := []error{}
	for name, url := range nodes {
		client, err := rpc.DialContext(ctx, url)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		clients[name] = client
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("couldn't connect to any nodes: %w", errors.Join(errs...))
	}
	return NewBroadcaster(clients, timeout), nil
}

func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("tx is not valid, couldn't use rlp to encode it: %w", err)
	}
	if err := b.Broadcast(ctx, hexutil.Encode(data)); err != nil {
		return tx.Hash(), err
	}
	return tx.Hash(), nil
}

// Broadcast sends hex encoded signed tx data to all nodes in parallel.
func (b *Broadcaster) Broadcast(ctx context.Context, data string) error {
	timeout, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	errCh := make(chan error, len(b.clients))
	for name, cli := range b.clients {
		go func() {
			err := cli.CallContext(timeout, nil, "eth_sendRawTransaction", data)
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
			}
			errCh <- err
		}()
	}
	errs := []error{}
	for range b.clients {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(b.clients) {
		return fmt.Errorf("couldn't broadcast to any nodes: %w", errors.Join(errs...))
	}
	return nil
}
