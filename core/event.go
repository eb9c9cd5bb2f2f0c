package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind tags the variant of a workflow event.
type EventKind string

const (
	// EventStarted signals that an executor began responding.
	EventStarted EventKind = "started"
	// EventUpdate carries a streaming text delta from an executor.
	EventUpdate EventKind = "update"
	// EventHandoffRequested signals a validated transfer of control.
	EventHandoffRequested EventKind = "handoff_requested"
	// EventCompleted signals an executor finished and its turn was appended.
	EventCompleted EventKind = "completed"
	// EventFailed reports a failure; branch-scoped in concurrent topology,
	// terminal otherwise.
	EventFailed EventKind = "failed"
	// EventWorkflowOutput is the terminal event carrying the frozen context.
	EventWorkflowOutput EventKind = "workflow_output"
)

// Event is the unit of the engine's observable stream. After emission it is
// treated as immutable. Consumers must tolerate ordering guarantees only
// within a branch; across concurrent branches only fan-out/fan-in boundaries
// order events.
type Event struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Kind       EventKind `json:"kind"`
	ExecutorID string    `json:"executor_id,omitempty"`
	TextDelta  string    `json:"text_delta,omitempty"`
	Output     string    `json:"output,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Err        error     `json:"-"`
	Turns      []Turn    `json:"turns,omitempty"`
	Terminal   bool      `json:"terminal,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewID generates a unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

func newEvent(runID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewStartedEvent signals that the executor began responding.
func NewStartedEvent(runID, executorID string) Event {
	e := newEvent(runID, EventStarted)
	e.ExecutorID = executorID
	return e
}

// NewUpdateEvent carries one streaming text delta from the executor.
func NewUpdateEvent(runID, executorID, delta string) Event {
	e := newEvent(runID, EventUpdate)
	e.ExecutorID = executorID
	e.TextDelta = delta
	return e
}

// NewHandoffRequestedEvent records a validated agent-initiated transfer.
func NewHandoffRequestedEvent(runID, from, to string) Event {
	e := newEvent(runID, EventHandoffRequested)
	e.From = from
	e.To = to
	return e
}

// NewCompletedEvent records the executor's full output after its turn was
// appended to the conversation.
func NewCompletedEvent(runID, executorID, output string) Event {
	e := newEvent(runID, EventCompleted)
	e.ExecutorID = executorID
	e.Output = output
	return e
}

// NewFailedEvent records a failure. Branch-scoped failures in concurrent
// topology carry the executor id and are not terminal; a terminal failure
// ends the stream.
func NewFailedEvent(runID, executorID string, err error, terminal bool) Event {
	e := newEvent(runID, EventFailed)
	e.ExecutorID = executorID
	e.Err = err
	e.Terminal = terminal
	return e
}

// NewWorkflowOutputEvent is the terminal success event carrying the frozen
// final context and the run's output text.
func NewWorkflowOutputEvent(runID string, turns []Turn, output string) Event {
	e := newEvent(runID, EventWorkflowOutput)
	e.Turns = turns
	e.Output = output
	e.Terminal = true
	return e
}

// IsTerminal reports whether this event ends the stream.
func (e Event) IsTerminal() bool { return e.Terminal }
