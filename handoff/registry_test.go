package handoff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/workflow"
)

func buildGraph(t *testing.T) *workflow.Graph {
	t.Helper()

	responder := core.ResponderFunc(func(context.Context, string, []core.Turn) (string, error) {
		return "ok", nil
	})

	frontline := core.NewExecutor("frontline", responder, func(o *core.ExecutorOptions) {
		o.Description = "First point of contact"
	})
	specialist := core.NewExecutor("specialist", responder, func(o *core.ExecutorOptions) {
		o.Description = "Handles escalations"
	})
	billing := core.NewExecutor("billing", responder)

	g, err := workflow.NewHandoff("support", frontline,
		[]*core.Executor{frontline, specialist, billing},
		[]workflow.Edge{
			{From: "frontline", To: "specialist"},
			{From: "frontline", To: "billing"},
			{From: "specialist", To: "frontline"},
		},
	)
	require.NoError(t, err)

	return g
}

func TestRegistry_ForExecutor(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	intents := r.ForExecutor("frontline")
	require.Len(t, intents, 2)
	assert.Equal(t, "specialist", intents[0].Target)
	assert.Equal(t, "Handles escalations", intents[0].Description)
	assert.Equal(t, "billing", intents[1].Target)

	assert.Empty(t, r.ForExecutor("billing"))
}

func TestRegistry_Instructions(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	instr := r.Instructions("frontline")
	assert.Contains(t, instr, "specialist")
	assert.Contains(t, instr, "billing")
	assert.Contains(t, instr, "TRANSFER(<name>)")

	assert.Empty(t, r.Instructions("billing"))
}

func TestRegistry_ParseIntent(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	target, reason, ok := r.ParseIntent("I cannot help with this.\nTRANSFER(specialist): needs deep debugging")
	require.True(t, ok)
	assert.Equal(t, "specialist", target)
	assert.Equal(t, "needs deep debugging", reason)
}

func TestRegistry_ParseIntent_CaseInsensitive(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	target, _, ok := r.ParseIntent("transfer(Specialist): please")
	require.True(t, ok)
	assert.Equal(t, "Specialist", target)
}

func TestRegistry_ParseIntent_NoTransfer(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	_, _, ok := r.ParseIntent("Here is your answer: restart the router.")
	assert.False(t, ok)
}

func TestRegistry_ParseIntent_FirstLineWins(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	target, _, ok := r.ParseIntent("TRANSFER(billing): invoice\nTRANSFER(specialist): other")
	require.True(t, ok)
	assert.Equal(t, "billing", target)
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(buildGraph(t))

	canonical, ok := r.Resolve("frontline", "Specialist")
	require.True(t, ok)
	assert.Equal(t, "specialist", canonical)

	canonical, ok = r.Resolve("frontline", "SPECIALIST")
	require.True(t, ok)
	assert.Equal(t, "specialist", canonical)

	_, ok = r.Resolve("frontline", "ghost")
	assert.False(t, ok)

	// No outgoing edges means no legal transfers at all.
	_, ok = r.Resolve("billing", "frontline")
	assert.False(t, ok)
}
