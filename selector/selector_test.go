package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
)

func TestRoundRobin_CyclesInOrder(t *testing.T) {
	sel := NewRoundRobin(0)
	participants := []string{"a", "b", "c"}

	var order []string
	for i := 0; i < 5; i++ {
		d := sel.SelectNext(nil, participants)
		require.False(t, d.Terminate)
		order = append(order, d.NextSpeakerID)
	}

	assert.Equal(t, []string{"a", "b", "c", "a", "b"}, order)
	assert.Equal(t, 5, sel.Iterations())
	assert.Equal(t, "b", sel.LastSpeakerID())
}

func TestRoundRobin_TerminatesAtLimit(t *testing.T) {
	sel := NewRoundRobin(2)
	participants := []string{"a", "b"}

	assert.False(t, sel.SelectNext(nil, participants).Terminate)
	assert.False(t, sel.SelectNext(nil, participants).Terminate)

	d := sel.SelectNext(nil, participants)
	assert.True(t, d.Terminate)
	assert.NotEmpty(t, d.Reason)
}

func TestRoundRobin_NoParticipants(t *testing.T) {
	sel := NewRoundRobin(5)
	d := sel.SelectNext(nil, nil)
	assert.True(t, d.Terminate)
}

func TestRoundRobin_PolicyStateRoundTrip(t *testing.T) {
	sel := NewRoundRobin(5)
	participants := []string{"a", "b", "c"}
	sel.SelectNext(nil, participants)
	sel.SelectNext(nil, participants)

	state := sel.PolicyState()

	restored := NewRoundRobin(0)
	restored.RestorePolicyState(state)

	d := restored.SelectNext(nil, participants)
	assert.Equal(t, "c", d.NextSpeakerID)
	assert.Equal(t, 3, restored.Iterations())
}

func TestRoundRobin_RestoresFromJSONNumbers(t *testing.T) {
	// JSON decoding turns ints into float64.
	state := map[string]any{
		"next":            float64(1),
		"iteration_count": float64(1),
		"max_iterations":  float64(3),
		"last_speaker_id": "a",
	}

	sel := NewRoundRobin(0)
	sel.RestorePolicyState(state)

	d := sel.SelectNext(nil, []string{"a", "b"})
	assert.Equal(t, "b", d.NextSpeakerID)
	assert.Equal(t, "a", state["last_speaker_id"])
}

func TestFunc(t *testing.T) {
	sel := Func(func(_ []core.Turn, participants []string) Decision {
		return Decision{NextSpeakerID: participants[len(participants)-1]}
	})

	d := sel.SelectNext(nil, []string{"a", "b"})
	assert.Equal(t, "b", d.NextSpeakerID)
}

func TestKeywordTerminator(t *testing.T) {
	sel := NewKeywordTerminator(NewRoundRobin(10), "CONSENSUS")
	participants := []string{"a", "b"}

	d := sel.SelectNext([]core.Turn{core.NewAgentTurn("a", "still thinking")}, participants)
	assert.False(t, d.Terminate)

	d = sel.SelectNext([]core.Turn{core.NewAgentTurn("b", "I believe we reached consensus here")}, participants)
	assert.True(t, d.Terminate)
	assert.Contains(t, d.Reason, "consensus")
}

func TestKeywordTerminator_DelegatesPolicyState(t *testing.T) {
	inner := NewRoundRobin(5)
	inner.SelectNext(nil, []string{"a", "b"})

	sel := NewKeywordTerminator(inner, "DONE")

	state := sel.PolicyState()
	require.NotNil(t, state)
	assert.Equal(t, 1, state["iteration_count"])

	restored := NewKeywordTerminator(NewRoundRobin(0), "DONE")
	restored.RestorePolicyState(state)
	d := restored.SelectNext(nil, []string{"a", "b"})
	assert.Equal(t, "b", d.NextSpeakerID)
}
