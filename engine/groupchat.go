package engine

import (
	"fmt"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/selector"
)

// runGroupChat drives a turn-based conversation: the graph's selector chooses
// the next speaker before each turn, every participant sees the full history
// and the loop ends on an explicit termination decision or the iteration
// ceiling. Termination decisions are honored only once the chat has produced
// at least one turn; a stateful selector's policy state is exported for the
// store at the end.
func (e *Engine) runGroupChat(rc *runContext, input string) (string, error) {
	sel := rc.graph.NewSelector()
	if st, ok := sel.(selector.Stateful); ok && rc.policyState != nil {
		st.RestorePolicyState(rc.policyState)
	}

	executors := rc.graph.Executors()
	participants := make([]string, len(executors))
	for i, ex := range executors {
		participants[i] = ex.ID()
	}

	maxIters := rc.graph.MaxIterations()

	var lastOutput string
	produced := 0

	for maxIters <= 0 || produced < maxIters {
		if err := rc.ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrCancelled, err)
		}

		decision := sel.SelectNext(rc.conv.Snapshot(), participants)

		speakerID := decision.NextSpeakerID
		if decision.Terminate {
			if produced > 0 {
				e.logger.Info("group chat terminated run_id=%s turns=%d reason=%q", rc.runID, produced, decision.Reason)
				break
			}
			// The chat produces at least one turn before a termination
			// decision takes effect.
			speakerID = participants[0]
		}

		ex, ok := rc.graph.Executor(speakerID)
		if !ok {
			return "", fmt.Errorf("selector chose unknown participant %q", speakerID)
		}

		out, err := rc.invoke(ex, input, rc.conv.Snapshot())
		if err != nil {
			return "", err
		}
		if err := rc.step(ex, out); err != nil {
			return "", err
		}

		lastOutput = out
		produced++
	}

	if st, ok := sel.(selector.Stateful); ok {
		rc.policyOut = st.PolicyState()
	}

	return lastOutput, nil
}
