// Package selector provides pluggable turn selection for group-chat
// workflows. A TurnSelector chooses the next speaker from the participants or
// signals termination; the engine enforces the iteration ceiling on top of
// whatever policy the selector applies.
package selector

import (
	"strings"

	"github.com/hupe1980/agentweave/core"
)

// Decision is the outcome of one selection step: either the next speaker or
// an explicit termination signal with an optional reason.
type Decision struct {
	NextSpeakerID string
	Terminate     bool
	Reason        string
}

// TurnSelector chooses the next group-chat speaker from the conversation so
// far. Implementations may be stateful; the engine creates one selector per
// run via a Provider.
type TurnSelector interface {
	SelectNext(history []core.Turn, participants []string) Decision
}

// Provider yields a fresh selector for each run so graphs stay reusable
// across concurrent runs.
type Provider func() TurnSelector

// Func adapts a plain function to the TurnSelector interface. Handy for
// stateless custom policies and tests.
type Func func(history []core.Turn, participants []string) Decision

// SelectNext implements TurnSelector.
func (f Func) SelectNext(history []core.Turn, participants []string) Decision {
	return f(history, participants)
}

// Stateful is an optional extension letting a selector round-trip opaque
// policy state (e.g. its iteration count) through a ContextStore between
// runs.
type Stateful interface {
	PolicyState() map[string]any
	RestorePolicyState(state map[string]any)
}

// RoundRobin cycles participants in declaration order, ignores conversation
// content and terminates purely on iteration count. It is the default
// group-chat policy.
type RoundRobin struct {
	next          int
	iterations    int
	maxIterations int
	lastSpeakerID string
}

// NewRoundRobin creates a round-robin selector terminating after
// maxIterations selections. maxIterations <= 0 means no selector-side limit;
// the engine ceiling still applies.
func NewRoundRobin(maxIterations int) *RoundRobin {
	return &RoundRobin{maxIterations: maxIterations}
}

// SelectNext implements TurnSelector.
func (r *RoundRobin) SelectNext(_ []core.Turn, participants []string) Decision {
	if len(participants) == 0 {
		return Decision{Terminate: true, Reason: "no participants"}
	}
	if r.maxIterations > 0 && r.iterations >= r.maxIterations {
		return Decision{Terminate: true, Reason: "iteration limit reached"}
	}

	speaker := participants[r.next%len(participants)]
	r.next++
	r.iterations++
	r.lastSpeakerID = speaker

	return Decision{NextSpeakerID: speaker}
}

// Iterations returns how many selections have been made.
func (r *RoundRobin) Iterations() int { return r.iterations }

// LastSpeakerID returns the most recently selected participant.
func (r *RoundRobin) LastSpeakerID() string { return r.lastSpeakerID }

// PolicyState implements Stateful.
func (r *RoundRobin) PolicyState() map[string]any {
	return map[string]any{
		"next":            r.next,
		"iteration_count": r.iterations,
		"max_iterations":  r.maxIterations,
		"last_speaker_id": r.lastSpeakerID,
	}
}

// RestorePolicyState implements Stateful. Numeric values arrive as float64
// after a JSON round trip through a store backend.
func (r *RoundRobin) RestorePolicyState(state map[string]any) {
	r.next = asInt(state["next"], r.next)
	r.iterations = asInt(state["iteration_count"], r.iterations)
	r.maxIterations = asInt(state["max_iterations"], r.maxIterations)
	if s, ok := state["last_speaker_id"].(string); ok {
		r.lastSpeakerID = s
	}
}

func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// KeywordTerminator wraps another selector and terminates the chat early
// when the last turn contains one of the keywords (case insensitive). It
// models detection of a concluding turn, e.g. an agreed "CONSENSUS" marker.
type KeywordTerminator struct {
	inner    TurnSelector
	keywords []string
}

// NewKeywordTerminator wraps inner with keyword-based early termination.
func NewKeywordTerminator(inner TurnSelector, keywords ...string) *KeywordTerminator {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &KeywordTerminator{inner: inner, keywords: lowered}
}

// SelectNext implements TurnSelector.
func (k *KeywordTerminator) SelectNext(history []core.Turn, participants []string) Decision {
	if len(history) > 0 {
		last := strings.ToLower(history[len(history)-1].Text)
		for _, kw := range k.keywords {
			if strings.Contains(last, kw) {
				return Decision{Terminate: true, Reason: "keyword " + kw}
			}
		}
	}
	return k.inner.SelectNext(history, participants)
}

// PolicyState implements Stateful by delegating to the wrapped selector.
func (k *KeywordTerminator) PolicyState() map[string]any {
	if s, ok := k.inner.(Stateful); ok {
		return s.PolicyState()
	}
	return nil
}

// RestorePolicyState implements Stateful by delegating to the wrapped selector.
func (k *KeywordTerminator) RestorePolicyState(state map[string]any) {
	if s, ok := k.inner.(Stateful); ok {
		s.RestorePolicyState(state)
	}
}
