package core

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors of the orchestration core. Build-time errors
// (ErrInvalidTopology, ErrDuplicateExecutorID) fail graph construction
// entirely; the remainder surface at run time through a terminal failed
// event.
var (
	// ErrInvalidTopology reports a structural misconfiguration detected while
	// building a workflow graph.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrDuplicateExecutorID reports two executors sharing an id within one graph.
	ErrDuplicateExecutorID = errors.New("duplicate executor id")

	// ErrExceededHandoffLimit reports a non-converging transfer loop.
	ErrExceededHandoffLimit = errors.New("handoff limit exceeded")

	// ErrUndeclaredTarget reports a requested transfer to an executor not
	// reachable via a declared edge. The engine never follows such a target.
	ErrUndeclaredTarget = errors.New("undeclared transfer target")

	// ErrCancelled reports external cancellation observed mid-run.
	ErrCancelled = errors.New("run cancelled")

	// ErrConversationFrozen reports an append attempted after run completion.
	ErrConversationFrozen = errors.New("conversation is frozen")
)

// ResponderError wraps a failure of the external respond capability,
// preserving which executor's call failed.
type ResponderError struct {
	ExecutorID string
	Err        error
}

// Error implements the error interface.
func (e *ResponderError) Error() string {
	return fmt.Sprintf("responder %s: %v", e.ExecutorID, e.Err)
}

// Unwrap exposes the underlying failure for errors.Is / errors.As.
func (e *ResponderError) Unwrap() error { return e.Err }

// ClassifyResponderError normalizes an error returned by a Respond call:
// context cancellation maps onto ErrCancelled, everything else is wrapped as
// a ResponderError attributed to the executor.
func ClassifyResponderError(executorID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCancelled) {
		return fmt.Errorf("%w: %s", ErrCancelled, executorID)
	}
	return &ResponderError{ExecutorID: executorID, Err: err}
}
