package agentweave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/config"
	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/internal/testutil"
	"github.com/hupe1980/agentweave/workflow"
)

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.MaxConcurrentRuns = 4
	cfg.CancellationGrace = config.Duration(2 * time.Second)

	orch, err := NewFromConfig(cfg)
	require.NoError(t, err)

	g, err := workflow.NewSequential("pipeline",
		core.NewExecutor("writer", testutil.StaticResponder("configured reply")),
	)
	require.NoError(t, err)

	res, err := orch.RunSync(context.Background(), g, "hello")
	require.NoError(t, err)
	assert.Equal(t, "configured reply", res.Output)
	assert.Len(t, res.Turns, 2)
}

func TestNewFromConfig_NilUsesDefaults(t *testing.T) {
	orch, err := NewFromConfig(nil)
	require.NoError(t, err)
	assert.NotNil(t, orch)
}

func TestNewFromConfig_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "dynamo"

	_, err := NewFromConfig(cfg)
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestNewFromConfig_OverridesWin(t *testing.T) {
	cfg := config.Default()
	cfg.EventBufferSize = 8

	var seen int
	_, err := NewFromConfig(cfg, func(o *Options) {
		seen = o.EventBufferSize
		o.EventBufferSize = 128
	})
	require.NoError(t, err)
	assert.Equal(t, 8, seen)
}

func TestGraphOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxIterations = 7
	cfg.MaxHandoffs = 2
	cfg.FallbackCandidate = "tech"

	opts := GraphOptionsFromConfig(cfg)

	triage := core.NewExecutor("triage", testutil.StaticResponder("decision"))
	billing := core.NewExecutor("billing", testutil.StaticResponder("billing answer"))
	tech := core.NewExecutor("tech", testutil.StaticResponder("tech answer"))

	routed, err := workflow.NewRouted("support", triage, []*core.Executor{billing, tech}, opts...)
	require.NoError(t, err)
	assert.Equal(t, "tech", routed.FallbackID())

	chat, err := workflow.NewGroupChat("chat",
		[]*core.Executor{billing, tech},
		GraphOptionsFromConfig(cfg)...,
	)
	require.NoError(t, err)
	assert.Equal(t, 7, chat.MaxIterations())

	frontline := core.NewExecutor("frontline", testutil.StaticResponder("answer"))
	specialist := core.NewExecutor("specialist", testutil.StaticResponder("answer"))
	ho, err := workflow.NewHandoff("escalation", frontline,
		[]*core.Executor{frontline, specialist},
		[]workflow.Edge{{From: "frontline", To: "specialist"}},
		GraphOptionsFromConfig(cfg)...,
	)
	require.NoError(t, err)
	assert.Equal(t, 2, ho.MaxHandoffs())
}
