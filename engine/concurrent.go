package engine

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentweave/core"
)

// runConcurrent fans the run input out to every executor against one shared
// pre-fan-out snapshot and joins the results. Completions are appended in the
// order they arrive; the collector below is the only goroutine touching the
// conversation, so appends never interleave. Branch failures are reported as
// non-terminal failed events; the run itself fails only when every branch
// failed or the run was cancelled.
func (e *Engine) runConcurrent(rc *runContext, input string) (string, map[string]error, error) {
	executors := rc.graph.Executors()
	snapshot := rc.conv.Snapshot()

	type branchResult struct {
		ex  *core.Executor
		out string
		err error
	}

	results := make(chan branchResult, len(executors))

	g := &errgroup.Group{}
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}

	for _, ex := range executors {
		ex := ex
		g.Go(func() error {
			out, err := rc.invoke(ex, input, snapshot)
			results <- branchResult{ex: ex, out: out, err: err}
			return nil
		})
	}

	var (
		lastOutput string
		branchErrs map[string]error
		failures   []error
		succeeded  int
		stepErr    error
	)

	collect := func(res branchResult) {
		if res.err != nil {
			if branchErrs == nil {
				branchErrs = make(map[string]error)
			}
			branchErrs[res.ex.ID()] = res.err
			failures = append(failures, res.err)
			rc.send(core.NewFailedEvent(rc.runID, res.ex.ID(), res.err, false))
			return
		}
		if err := rc.step(res.ex, res.out); err != nil {
			stepErr = err
			return
		}
		lastOutput = res.out
		succeeded++
	}

	remaining := len(executors)
	for remaining > 0 && stepErr == nil {
		select {
		case res := <-results:
			remaining--
			collect(res)
		case <-rc.ctx.Done():
			// Bounded drain: give in-flight branches that ignore cancellation
			// a grace period to report, then abandon them.
			timer := time.NewTimer(e.cancellationTimeout)
			for remaining > 0 && stepErr == nil {
				select {
				case res := <-results:
					remaining--
					collect(res)
				case <-timer.C:
					remaining = 0
				}
			}
			timer.Stop()
		}
	}

	// The results channel is buffered for every branch, so abandoned branches
	// never block; the group drains in the background.
	go func() { _ = g.Wait() }()

	if stepErr != nil {
		return "", branchErrs, stepErr
	}

	if err := rc.ctx.Err(); err != nil {
		return "", branchErrs, fmt.Errorf("%w: %v", core.ErrCancelled, err)
	}

	if succeeded == 0 {
		return "", nil, fmt.Errorf("all branches failed: %w", errors.Join(failures...))
	}

	return lastOutput, branchErrs, nil
}
