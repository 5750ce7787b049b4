package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	root := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("reading resolver: %w", &Error{
		Kind:     KindRPC,
		Op:       "registry.resolver",
		Network:  "base-sepolia",
		Node:     "0xabc",
		Contract: "0x1493b2567056c2181630115660963E13A8E32735",
		Err:      root,
	})

	assert.True(t, errors.Is(err, ErrRPC))
	assert.True(t, errors.Is(err, root))
	assert.False(t, errors.Is(err, ErrNoResolver))
	assert.True(t, IsKind(err, KindRPC))
	assert.Equal(t, KindRPC, KindOf(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Retryable())
	assert.Contains(t, err.Error(), "network=base-sepolia")
	assert.Contains(t, err.Error(), "node=0xabc")
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestRetryableByKind(t *testing.T) {
	cases := map[Kind]bool{
		KindOwnership:           false,
		KindConflict:            false,
		KindInvalidName:         false,
		KindSimulationFailed:    true,
		KindTransactionReverted: true,
		KindRPC:                 true,
	}
	for kind, want := range cases {
		e := &Error{Kind: kind}
		assert.Equal(t, want, e.Retryable(), string(kind))
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
	assert.False(t, IsKind(nil, KindRPC))
}
