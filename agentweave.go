// Package agentweave provides a high-level façade over the workflow engine
// enabling rapid construction of multi-agent orchestrations. Most
// applications interact with this package by:
//  1. Creating an Orchestrator via New() (optionally overriding the default
//     in-memory context store and logger)
//  2. Building a workflow graph (sequential, concurrent, routed, handoff or
//     group chat) from executors via the workflow package
//  3. Running it asynchronously (Run) or synchronously (RunSync)
//
// The façade delegates execution to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a Redis-backed context
// store, a structured logger and a metrics recorder.
package agentweave

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/agentweave/config"
	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/engine"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/metrics"
	"github.com/hupe1980/agentweave/store"
	"github.com/hupe1980/agentweave/workflow"
)

// Options configures the Orchestrator instance.
type Options struct {
	// EventBufferSize sets the channel buffer size for event streams. Larger
	// buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// MaxConcurrentRuns limits the number of workflow runs that can execute
	// simultaneously. This prevents resource exhaustion and provides
	// backpressure. Set to 0 for unlimited (not recommended).
	MaxConcurrentRuns int64

	// MaxParallel caps simultaneous branches inside one concurrent fan-out.
	MaxParallel int

	// CancellationTimeout bounds how long a cancelled run waits for in-flight
	// responder calls to report before abandoning them; 0 keeps the engine
	// default.
	CancellationTimeout time.Duration

	// Store persists conversations between runs (defaults to in-memory).
	Store store.Store

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// Metrics records run instrumentation; nil disables it.
	Metrics *metrics.Recorder
}

// Orchestrator is the high-level façade aggregating the workflow engine and
// its services.
type Orchestrator struct {
	opts   Options
	engine *engine.Engine
}

// New creates an Orchestrator with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		EventBufferSize:   64,
		MaxConcurrentRuns: 16,
		Store:             store.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(func(o *engine.Options) {
		o.EventBufferSize = opts.EventBufferSize
		o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		o.MaxParallel = opts.MaxParallel
		if opts.CancellationTimeout > 0 {
			o.CancellationTimeout = opts.CancellationTimeout
		}
		o.Store = opts.Store
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	return &Orchestrator{opts: opts, engine: e}
}

// NewFromConfig creates an Orchestrator from a loaded configuration, mapping
// the store backend, logging and engine settings onto their functional
// options. Additional option functions are applied on top and win over the
// config.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := storeFromConfig(cfg.Store)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Output:    os.Stdout,
		Component: "agentweave",
	})

	fromConfig := func(o *Options) {
		o.EventBufferSize = cfg.EventBufferSize
		o.MaxConcurrentRuns = cfg.MaxConcurrentRuns
		o.MaxParallel = cfg.MaxParallel
		o.CancellationTimeout = cfg.CancellationGrace.Std()
		o.Store = st
		o.Logger = logger
	}

	return New(append([]func(o *Options){fromConfig}, optFns...)...), nil
}

func storeFromConfig(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, func(o *store.RedisOptions) {
			if cfg.Redis.Prefix != "" {
				o.Prefix = cfg.Redis.Prefix
			}
			o.TTL = cfg.Redis.TTL.Std()
		}), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// GraphOptionsFromConfig maps the workflow-level settings of a configuration
// onto graph builder options, for callers assembling graphs from the same
// file that configured the orchestrator.
func GraphOptionsFromConfig(cfg *config.Config) []func(o *workflow.GraphOptions) {
	var opts []func(o *workflow.GraphOptions)
	if cfg.MaxIterations > 0 {
		opts = append(opts, workflow.WithMaxIterations(cfg.MaxIterations))
	}
	if cfg.MaxHandoffs > 0 {
		opts = append(opts, workflow.WithMaxHandoffs(cfg.MaxHandoffs))
	}
	if cfg.FallbackCandidate != "" {
		opts = append(opts, workflow.WithFallback(cfg.FallbackCandidate))
	}
	return opts
}

// Run starts an asynchronous workflow run returning the run id and its event
// stream. The stream ends with a terminal event and is then closed.
func (o *Orchestrator) Run(ctx context.Context, g *workflow.Graph, input string, optFns ...func(ro *engine.RunOptions)) (string, <-chan core.Event, error) {
	return o.engine.Run(ctx, g, input, optFns...)
}

// RunSync is a synchronous helper that drains the event stream and returns
// the final result.
func (o *Orchestrator) RunSync(ctx context.Context, g *workflow.Graph, input string, optFns ...func(ro *engine.RunOptions)) (*engine.Result, error) {
	return o.engine.RunSync(ctx, g, input, optFns...)
}

// Cancel aborts a live run by id.
func (o *Orchestrator) Cancel(runID string) error {
	return o.engine.Cancel(runID)
}
