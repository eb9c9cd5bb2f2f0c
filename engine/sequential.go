package engine

import (
	"fmt"

	"github.com/hupe1980/agentweave/core"
)

// runSequential invokes the executors one after another. Each executor
// receives the previous executor's output as its prompt (the first receives
// the run input) plus a snapshot of the conversation so far. A single failure
// ends the run; completed turns stay in the conversation.
func (e *Engine) runSequential(rc *runContext, input string) (string, error) {
	current := input

	for _, ex := range rc.graph.Executors() {
		if err := rc.ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrCancelled, err)
		}

		out, err := rc.invoke(ex, current, rc.conv.Snapshot())
		if err != nil {
			return "", err
		}

		if err := rc.step(ex, out); err != nil {
			return "", err
		}

		current = out
	}

	return current, nil
}
