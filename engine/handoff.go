package engine

import (
	"fmt"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/handoff"
)

// runHandoff starts at the graph's initial executor and follows validated
// agent-initiated transfers until an executor answers without requesting one.
// Every parsed target is checked against the declared edge set; the transfer
// count is bounded by the graph's handoff ceiling so looping agents cannot
// run forever.
func (e *Engine) runHandoff(rc *runContext, input string) (string, error) {
	registry := handoff.NewRegistry(rc.graph)

	activeID := rc.graph.EntryID()
	prompt := input
	transfers := 0

	for {
		if err := rc.ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrCancelled, err)
		}

		ex, ok := rc.graph.Executor(activeID)
		if !ok {
			return "", fmt.Errorf("%w: %s", core.ErrUndeclaredTarget, activeID)
		}

		full := prompt
		if instr := registry.Instructions(activeID); instr != "" {
			full = prompt + "\n\n" + instr
		}

		out, err := rc.invoke(ex, full, rc.conv.Snapshot())
		if err != nil {
			return "", err
		}
		if err := rc.step(ex, out); err != nil {
			return "", err
		}

		target, reason, requested := registry.ParseIntent(out)
		if !requested {
			return out, nil
		}

		canonical, allowed := registry.Resolve(activeID, target)
		if !allowed {
			return "", fmt.Errorf("%w: %s -> %s", core.ErrUndeclaredTarget, activeID, target)
		}

		transfers++
		if transfers > rc.graph.MaxHandoffs() {
			return "", fmt.Errorf("%w: %d transfers", core.ErrExceededHandoffLimit, transfers)
		}

		e.metrics.HandoffRequested()
		rc.send(core.NewHandoffRequestedEvent(rc.runID, activeID, canonical))
		e.logger.Info("handoff run_id=%s from=%s to=%s reason=%q", rc.runID, activeID, canonical, reason)

		activeID = canonical
		prompt = input
		if reason != "" {
			prompt = reason
		}
	}
}
