// Package testutil contains fake responders used across tests to script
// executor behavior deterministically: fixed outputs, per-prompt scripts,
// injected failures and channel-gated blocking for concurrency tests. These
// helpers are intentionally minimal and not intended for production usage.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentweave/core"
)

// EchoResponder replies with a fixed prefix plus the prompt.
type EchoResponder struct {
	Prefix string
}

// Respond implements core.Responder.
func (r *EchoResponder) Respond(_ context.Context, prompt string, _ []core.Turn) (string, error) {
	return r.Prefix + prompt, nil
}

// StaticResponder always replies with the same output.
func StaticResponder(output string) core.Responder {
	return core.ResponderFunc(func(context.Context, string, []core.Turn) (string, error) {
		return output, nil
	})
}

// FailingResponder always fails with the given error.
func FailingResponder(err error) core.Responder {
	return core.ResponderFunc(func(context.Context, string, []core.Turn) (string, error) {
		return "", err
	})
}

// ScriptedResponder replies with its outputs in call order, failing once the
// script is exhausted. Safe for concurrent use.
type ScriptedResponder struct {
	mu      sync.Mutex
	outputs []string
	calls   int
}

// NewScriptedResponder creates a responder scripted with the given outputs.
func NewScriptedResponder(outputs ...string) *ScriptedResponder {
	return &ScriptedResponder{outputs: outputs}
}

// Respond implements core.Responder.
func (r *ScriptedResponder) Respond(context.Context, string, []core.Turn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.calls >= len(r.outputs) {
		return "", fmt.Errorf("scripted responder exhausted after %d calls", r.calls)
	}

	out := r.outputs[r.calls]
	r.calls++

	return out, nil
}

// Calls returns how many times the responder has been invoked.
func (r *ScriptedResponder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// RecordingResponder captures the prompt and history of every call before
// delegating to an inner responder. Safe for concurrent use.
type RecordingResponder struct {
	Inner core.Responder

	mu        sync.Mutex
	prompts   []string
	histories [][]core.Turn
}

// Respond implements core.Responder.
func (r *RecordingResponder) Respond(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	snapshot := make([]core.Turn, len(history))
	copy(snapshot, history)
	r.histories = append(r.histories, snapshot)
	r.mu.Unlock()

	return r.Inner.Respond(ctx, prompt, history)
}

// Prompts returns the recorded prompts in call order.
func (r *RecordingResponder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.prompts))
	copy(out, r.prompts)
	return out
}

// Histories returns the recorded history snapshots in call order.
func (r *RecordingResponder) Histories() [][]core.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]core.Turn, len(r.histories))
	copy(out, r.histories)
	return out
}

// BlockingResponder waits on its gate before replying, letting tests control
// completion order in concurrent topologies. Close the gate (or send on it)
// to release one call.
type BlockingResponder struct {
	Gate   chan struct{}
	Output string
}

// NewBlockingResponder creates a gated responder with the given output.
func NewBlockingResponder(output string) *BlockingResponder {
	return &BlockingResponder{Gate: make(chan struct{}), Output: output}
}

// Respond implements core.Responder. It honors context cancellation while
// waiting on the gate.
func (r *BlockingResponder) Respond(ctx context.Context, _ string, _ []core.Turn) (string, error) {
	select {
	case <-r.Gate:
		return r.Output, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Release unblocks one pending call.
func (r *BlockingResponder) Release() { r.Gate <- struct{}{} }

// StreamingStub implements core.StreamingResponder, emitting the given
// deltas one by one.
type StreamingStub struct {
	Deltas []string
}

// Respond implements core.Responder.
func (s *StreamingStub) Respond(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	deltas, errs := s.RespondStream(ctx, prompt, history)
	var out string
	for d := range deltas {
		out += d
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return out, nil
}

// RespondStream implements core.StreamingResponder.
func (s *StreamingStub) RespondStream(context.Context, string, []core.Turn) (<-chan string, <-chan error) {
	deltas := make(chan string, len(s.Deltas))
	errs := make(chan error, 1)
	for _, d := range s.Deltas {
		deltas <- d
	}
	close(deltas)
	close(errs)
	return deltas, errs
}
