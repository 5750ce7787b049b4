package reader

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	name    string
	data    []byte
	err     error
	delay   time.Duration
	receipt *types.Receipt
}

func (f *fakeNode) NodeName() string { return f.name }
func (f *fakeNode) NodeURL() string  { return "http://" + f.name }

func (f *fakeNode) wait(ctx context.Context) error {
	select {
	case <-time.After(f.delay):
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeNode) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(84532), f.wait(ctx)
}

func (f *fakeNode) CallContract(ctx context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.data, nil
}

func (f *fakeNode) EstimateGas(ctx context.Context, _ ethereum.CallMsg) (uint64, error) {
	return 21000, f.wait(ctx)
}

func (f *fakeNode) PendingNonceAt(ctx context.Context, _ common.Address) (uint64, error) {
	return 7, f.wait(ctx)
}

func (f *fakeNode) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), f.wait(ctx)
}

func (f *fakeNode) HeaderByNumber(ctx context.Context, _ *big.Int) (*types.Header, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &types.Header{Number: big.NewInt(100)}, nil
}

func (f *fakeNode) TransactionReceipt(ctx context.Context, _ common.Hash) (*types.Receipt, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func TestFirstSuccessfulNodeWins(t *testing.T) {
	r := NewEthReaderFromNodes(time.Second,
		&fakeNode{name: "down", err: errors.New("connection refused")},
		&fakeNode{name: "up", data: []byte{0x01}},
	)
	out, err := r.CallContract(context.Background(), ethereum.CallMsg{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)

	n, err := r.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), n)
}

func TestAllNodesFailingJoinsErrors(t *testing.T) {
	r := NewEthReaderFromNodes(time.Second,
		&fakeNode{name: "a", err: errors.New("boom a")},
		&fakeNode{name: "b", err: errors.New("boom b")},
	)
	_, err := r.CallContract(context.Background(), ethereum.CallMsg{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't read from any nodes")
	assert.Contains(t, err.Error(), "a: boom a")
	assert.Contains(t, err.Error(), "b: boom b")
}

func TestReceiptNotFoundIsDetectable(t *testing.T) {
	r := NewEthReaderFromNodes(time.Second, &fakeNode{name: "a"})
	_, err := r.TransactionReceipt(context.Background(), common.Hash{})
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestTimeoutBoundsSlowNodes(t *testing.T) {
	r := NewEthReaderFromNodes(20*time.Millisecond, &fakeNode{name: "slow", delay: time.Second})
	start := time.Now()
	_, err := r.ChainID(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestNoNodes(t *testing.T) {
	_, err := NewEthReader(nil, 0).ChainID(context.Background())
	assert.ErrorIs(t, err, ErrNoNodes)
}
