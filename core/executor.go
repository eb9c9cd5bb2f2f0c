package core

import (
	"context"
	"fmt"
)

// Responder is the external capability that produces text from a prompt and a
// read-only view of the conversation so far. Implementations are expected to
// be asynchronous-friendly: they must honor context cancellation and may be
// I/O bound (typically an LLM API call). Latency and availability are opaque
// to the engine beyond success, failure and cancellation.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []Turn) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(ctx context.Context, prompt string, history []Turn) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, prompt string, history []Turn) (string, error) {
	return f(ctx, prompt, history)
}

// StreamingResponder is an optional extension of Responder. When a responder
// implements it, the engine consumes the delta channel and surfaces each
// fragment as an update event before assembling the complete output.
type StreamingResponder interface {
	Responder
	RespondStream(ctx context.Context, prompt string, history []Turn) (<-chan string, <-chan error)
}

// Executor binds a Responder to an identity participating in a workflow.
// Executors hold no per-conversation state, so a single executor may be
// shared by concurrent runs against different conversations.
type Executor struct {
	id          string
	description string
	responder   Responder
	targets     []string
}

// ExecutorOptions holds optional executor configuration.
type ExecutorOptions struct {
	// Description documents the executor's purpose; surfaced to routing and
	// handoff prompts so peers can choose it sensibly.
	Description string
	// HandoffTargets declares the executor ids this executor may transfer
	// control to in a handoff topology.
	HandoffTargets []string
}

// NewExecutor creates an executor with the given id and responder.
func NewExecutor(id string, responder Responder, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Description: fmt.Sprintf("Executor %s", id),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		id:          id,
		description: opts.Description,
		responder:   responder,
		targets:     opts.HandoffTargets,
	}
}

// ID returns the executor's identifier, unique per workflow graph.
func (e *Executor) ID() string { return e.id }

// Description returns the executor's purpose description.
func (e *Executor) Description() string { return e.description }

// Responder returns the bound respond capability.
func (e *Executor) Responder() Responder { return e.responder }

// HandoffTargets returns a copy of the declared transfer targets.
func (e *Executor) HandoffTargets() []string {
	targets := make([]string, len(e.targets))
	copy(targets, e.targets)
	return targets
}
