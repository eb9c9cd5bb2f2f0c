package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/metrics"
	"github.com/hupe1980/agentweave/store"
	"github.com/hupe1980/agentweave/workflow"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for the event stream.
	EventBufferSize int
	// MaxConcurrentRuns limits simultaneously executing runs; 0 disables the limit.
	MaxConcurrentRuns int64
	// MaxParallel caps simultaneous branches inside one concurrent fan-out;
	// 0 dispatches all branches at once.
	MaxParallel int
	// CancellationTimeout bounds how long the engine waits for in-flight
	// responder calls to acknowledge cancellation before abandoning them.
	CancellationTimeout time.Duration
	// Store persists conversations keyed by WithConversationKey.
	Store store.Store
	// Logger receives engine diagnostics.
	Logger logging.Logger
	// Metrics records run instrumentation; nil disables it.
	Metrics *metrics.Recorder
}

// Engine executes workflow graphs. Public methods are safe for concurrent
// use; one engine typically serves the whole process.
type Engine struct {
	eventBufferSize     int
	maxParallel         int
	cancellationTimeout time.Duration

	store   store.Store
	logger  logging.Logger
	metrics *metrics.Recorder

	sem *semaphore.Weighted

	mu         sync.Mutex
	activeRuns map[string]context.CancelFunc
}

// New constructs an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		EventBufferSize:     64,
		MaxConcurrentRuns:   16,
		CancellationTimeout: 5 * time.Second,
		Store:               store.NewInMemoryStore(),
		Logger:              logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var sem *semaphore.Weighted
	if opts.MaxConcurrentRuns > 0 {
		sem = semaphore.NewWeighted(opts.MaxConcurrentRuns)
	}

	return &Engine{
		eventBufferSize:     opts.EventBufferSize,
		maxParallel:         opts.MaxParallel,
		cancellationTimeout: opts.CancellationTimeout,
		store:               opts.Store,
		logger:              opts.Logger,
		metrics:             opts.Metrics,
		sem:                 sem,
		activeRuns:          make(map[string]context.CancelFunc),
	}
}

// RunOptions holds per-run overrides.
type RunOptions struct {
	// ConversationKey makes the run load its prior context (and policy
	// state) from the store before starting and save back at completion.
	// The store performs an explicit get-or-create: a missing key starts a
	// fresh conversation.
	ConversationKey string
	// PriorTurns seeds the conversation directly, bypassing the store.
	PriorTurns []core.Turn
}

// WithConversationKey round-trips the conversation through the engine's store.
func WithConversationKey(key string) func(o *RunOptions) {
	return func(o *RunOptions) { o.ConversationKey = key }
}

// WithPriorTurns seeds the conversation with an explicit prior context.
func WithPriorTurns(turns []core.Turn) func(o *RunOptions) {
	return func(o *RunOptions) { o.PriorTurns = turns }
}

// Result is the drained outcome of a synchronous run.
type Result struct {
	RunID string
	// Turns is the frozen final context.
	Turns []core.Turn
	// Output is the text of the final appended turn.
	Output string
	// BranchErrors collects per-branch failures of a concurrent run that
	// completed with partial results.
	BranchErrors map[string]error
}

// Run starts an asynchronous workflow run. The returned channel carries the
// full event stream, ends with a terminal workflow_output or failed event and
// is then closed. Consumers must drain the channel until it closes; the
// terminal event is delivered even after cancellation. Cancel the supplied
// context or call Cancel(runID) to abort.
func (e *Engine) Run(ctx context.Context, g *workflow.Graph, input string, optFns ...func(o *RunOptions)) (string, <-chan core.Event, error) {
	if g == nil {
		return "", nil, fmt.Errorf("%w: nil graph", core.ErrInvalidTopology)
	}

	opts := RunOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	runID := core.NewID()
	events := make(chan core.Event, e.eventBufferSize)

	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.activeRuns[runID] = cancel
	e.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			e.mu.Lock()
			delete(e.activeRuns, runID)
			e.mu.Unlock()
			close(events)
		}()

		e.execute(runCtx, runID, g, input, opts, events)
	}()

	return runID, events, nil
}

// RunSync drains the event stream of a run and returns its final result. A
// terminal failed event is returned as an error alongside the result
// collected so far.
func (e *Engine) RunSync(ctx context.Context, g *workflow.Graph, input string, optFns ...func(o *RunOptions)) (*Result, error) {
	runID, events, err := e.Run(ctx, g, input, optFns...)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID}
	var terminalErr error
	for ev := range events {
		switch ev.Kind {
		case core.EventFailed:
			if ev.Terminal {
				terminalErr = ev.Err
			} else if ev.ExecutorID != "" {
				if res.BranchErrors == nil {
					res.BranchErrors = make(map[string]error)
				}
				res.BranchErrors[ev.ExecutorID] = ev.Err
			}
		case core.EventWorkflowOutput:
			res.Turns = ev.Turns
			res.Output = ev.Output
		}
	}

	return res, terminalErr
}

// Cancel aborts a live run by id.
func (e *Engine) Cancel(runID string) error {
	e.mu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// execute performs the full run lifecycle: semaphore admission, context
// loading, topology dispatch, terminal event emission and store save.
func (e *Engine) execute(ctx context.Context, runID string, g *workflow.Graph, input string, opts RunOptions, events chan core.Event) {
	start := time.Now()

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			events <- core.NewFailedEvent(runID, "", fmt.Errorf("%w: %v", core.ErrCancelled, err), true)
			return
		}
		defer e.sem.Release(1)
	}

	prior := opts.PriorTurns
	var policyState map[string]any
	if opts.ConversationKey != "" && e.store != nil {
		rec, err := e.store.Load(ctx, opts.ConversationKey)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Fresh conversation under this key.
		case err != nil:
			events <- core.NewFailedEvent(runID, "", fmt.Errorf("load conversation %s: %w", opts.ConversationKey, err), true)
			return
		default:
			prior = rec.Turns
			policyState = rec.PolicyState
		}
	}

	conv := core.NewConversation(prior...)
	if err := conv.Append(core.NewUserTurn(input)); err != nil {
		events <- core.NewFailedEvent(runID, "", err, true)
		return
	}

	rc := &runContext{
		ctx:         ctx,
		runID:       runID,
		graph:       g,
		conv:        conv,
		events:      events,
		engine:      e,
		policyState: policyState,
	}

	output, branchErrs, err := e.dispatch(rc, input)

	turns := conv.Freeze()
	topology := string(g.Topology())

	if err != nil {
		status := "failed"
		if errors.Is(err, core.ErrCancelled) {
			status = "cancelled"
		}
		e.metrics.RunCompleted(topology, status, time.Since(start))
		e.logger.Error("workflow run failed run_id=%s topology=%s error=%v", runID, topology, err)
		e.saveConversation(opts.ConversationKey, turns, rc.policyOut)
		events <- core.NewFailedEvent(runID, "", err, true)
		return
	}

	for id, branchErr := range branchErrs {
		e.logger.Warn("concurrent branch failed run_id=%s executor=%s error=%v", runID, id, branchErr)
	}

	e.metrics.RunCompleted(topology, "output", time.Since(start))
	e.logger.Info("workflow run completed run_id=%s topology=%s turns=%d", runID, topology, len(turns))
	e.saveConversation(opts.ConversationKey, turns, rc.policyOut)
	events <- core.NewWorkflowOutputEvent(runID, turns, output)
}

// dispatch routes execution to the topology driver.
func (e *Engine) dispatch(rc *runContext, input string) (string, map[string]error, error) {
	switch rc.graph.Topology() {
	case workflow.TopologySequential:
		out, err := e.runSequential(rc, input)
		return out, nil, err
	case workflow.TopologyConcurrent:
		return e.runConcurrent(rc, input)
	case workflow.TopologyRouted:
		out, err := e.runRouted(rc, input)
		return out, nil, err
	case workflow.TopologyHandoff:
		out, err := e.runHandoff(rc, input)
		return out, nil, err
	case workflow.TopologyGroupChat:
		out, err := e.runGroupChat(rc, input)
		return out, nil, err
	default:
		return "", nil, fmt.Errorf("%w: %s", core.ErrInvalidTopology, rc.graph.Topology())
	}
}

// saveConversation persists the frozen context when a key was supplied.
// Persistence failures do not change the run outcome; they are logged.
func (e *Engine) saveConversation(key string, turns []core.Turn, policyState map[string]any) {
	if key == "" || e.store == nil {
		return
	}

	// The run context may already be cancelled; saving gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &store.Record{Key: key, Turns: turns, PolicyState: policyState}
	if err := e.store.Save(ctx, key, rec); err != nil {
		e.logger.Error("failed to save conversation key=%s error=%v", key, err)
	}
}

// emit delivers a non-terminal event: a blocking send while the run context
// is live, best-effort afterwards so cancelled runs do not hang on progress
// events the consumer stopped reading. Terminal events never go through here;
// they are sent unconditionally blocking, because the stream contract is that
// consumers drain until close and every stream ends in a terminal event.
func emit(ctx context.Context, events chan core.Event, ev core.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
		select {
		case events <- ev:
		default:
		}
	}
}
