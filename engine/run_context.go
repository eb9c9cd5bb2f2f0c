package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/workflow"
)

// runContext carries the mutable per-run execution scope shared by the
// topology drivers: the cancellation context, the conversation (only the
// engine writes to it), the event stream and the policy state loaded from and
// saved to the store.
type runContext struct {
	ctx    context.Context
	runID  string
	graph  *workflow.Graph
	conv   *core.Conversation
	events chan core.Event
	engine *Engine

	policyState map[string]any // loaded from the store, restored into selectors
	policyOut   map[string]any // exported by selectors, saved back
}

// send emits an event on the run's stream, degrading to a best-effort
// non-blocking send once the run context is cancelled.
func (rc *runContext) send(ev core.Event) {
	emit(rc.ctx, rc.events, ev)
}

// invoke calls one executor's responder with the prompt and a read-only
// history snapshot, emitting started and update events. Errors are classified
// (cancellation vs responder failure) and attributed to the executor.
func (rc *runContext) invoke(ex *core.Executor, prompt string, history []core.Turn) (string, error) {
	rc.send(core.NewStartedEvent(rc.runID, ex.ID()))

	start := time.Now()

	var (
		out string
		err error
	)
	if sr, ok := ex.Responder().(core.StreamingResponder); ok {
		out, err = rc.invokeStream(sr, ex.ID(), prompt, history)
	} else {
		out, err = ex.Responder().Respond(rc.ctx, prompt, history)
	}

	dur := time.Since(start)

	if err != nil {
		err = core.ClassifyResponderError(ex.ID(), err)
		rc.engine.metrics.ResponderCall(responderOutcome(err), dur)
		rc.engine.logger.Debug("responder call failed run_id=%s executor=%s duration=%s error=%v", rc.runID, ex.ID(), dur, err)
		return "", err
	}

	rc.engine.metrics.ResponderCall("ok", dur)
	rc.engine.logger.Debug("responder call completed run_id=%s executor=%s duration=%s", rc.runID, ex.ID(), dur)

	return out, nil
}

// invokeStream consumes a streaming responder, surfacing each delta as an
// update event before assembling the full output.
func (rc *runContext) invokeStream(sr core.StreamingResponder, executorID, prompt string, history []core.Turn) (string, error) {
	deltas, errs := sr.RespondStream(rc.ctx, prompt, history)

	var b strings.Builder
	for delta := range deltas {
		b.WriteString(delta)
		rc.send(core.NewUpdateEvent(rc.runID, executorID, delta))
	}

	if err := <-errs; err != nil {
		return "", err
	}

	return b.String(), nil
}

// step appends the executor's output as a turn and emits the completed event.
func (rc *runContext) step(ex *core.Executor, output string) error {
	if err := rc.conv.Append(core.NewAgentTurn(ex.ID(), output)); err != nil {
		return err
	}

	rc.engine.metrics.TurnAppended(string(rc.graph.Topology()))
	rc.send(core.NewCompletedEvent(rc.runID, ex.ID(), output))

	return nil
}

func responderOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, core.ErrCancelled) {
		return "cancelled"
	}
	return "error"
}
