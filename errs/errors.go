package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a coarse classification of what went wrong. Commands and the
// workflow branch on Kind rather than on message text.
type Kind string

const (
	KindInvalidName         Kind = "invalid_name"
	KindNoResolver          Kind = "no_resolver"
	KindOwnership           Kind = "ownership"
	KindConflict            Kind = "conflict"
	KindSimulationFailed    Kind = "simulation_failed"
	KindTransactionReverted Kind = "transaction_reverted"
	KindRPC                 Kind = "rpc"
	KindReverseWarning      Kind = "reverse_resolution_warning"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidName         = errors.New("invalid name")
	ErrNoResolver          = errors.New("no resolver configured")
	ErrOwnership           = errors.New("not authorized")
	ErrConflict            = errors.New("already owned by another party")
	ErrSimulationFailed    = errors.New("simulation failed")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrRPC                 = errors.New("rpc failure")
	ErrReverseWarning      = errors.New("reverse resolution not set")
)

var sentinels = map[Kind]error{
	KindInvalidName:         ErrInvalidName,
	KindNoResolver:          ErrNoResolver,
	KindOwnership:           ErrOwnership,
	KindConflict:            ErrConflict,
	KindSimulationFailed:    ErrSimulationFailed,
	KindTransactionReverted: ErrTransactionReverted,
	KindRPC:                 ErrRPC,
	KindReverseWarning:      ErrReverseWarning,
}

// Error carries enough context (network, node, contract, endpoint) to
// reproduce a failing call by hand.
type Error struct {
	Kind     Kind
	Op       string
	Network  string
	Node     string // hex encoded node of the name involved, if any
	Contract string
	Endpoint string
	Reason   string // revert reason or human readable detail
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if s, ok := sentinels[e.Kind]; ok {
		b.WriteString(s.Error())
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " (%s)", e.Reason)
	}
	ctx := []string{}
	if e.Network != "" {
		ctx = append(ctx, "network="+e.Network)
	}
	if e.Node != "" {
		ctx = append(ctx, "node="+e.Node)
	}
	if e.Contract != "" {
		ctx = append(ctx, "contract="+e.Contract)
	}
	if e.Endpoint != "" {
		ctx = append(ctx, "endpoint="+e.Endpoint)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(ctx, " "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// Retryable reports whether repeating the same operation can succeed
// without the caller changing anything on chain first.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindRPC, KindSimulationFailed, KindTransactionReverted:
		return true
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func InvalidName(name string, err error) *Error {
	return &Error{Kind: KindInvalidName, Op: "normalize", Reason: name, Err: err}
}
