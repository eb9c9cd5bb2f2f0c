package engine

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentweave/core"
)

// runRouted asks the triage executor for a free-text routing decision, picks
// the first candidate whose id appears in it (case insensitive, declaration
// order) and dispatches the original input to that candidate. An
// unrecognizable decision routes to the fallback candidate; routing itself
// never fails the run.
func (e *Engine) runRouted(rc *runContext, input string) (string, error) {
	triage, ok := rc.graph.Executor(rc.graph.EntryID())
	if !ok {
		return "", fmt.Errorf("%w: missing triage executor %q", core.ErrInvalidTopology, rc.graph.EntryID())
	}

	decision, err := rc.invoke(triage, routingPrompt(rc, input), rc.conv.Snapshot())
	if err != nil {
		return "", err
	}
	if err := rc.step(triage, decision); err != nil {
		return "", err
	}

	chosen := e.pickCandidate(rc, decision)

	// The chosen candidate answers the original input, not the triage text.
	out, err := rc.invoke(chosen, input, rc.conv.Snapshot())
	if err != nil {
		return "", err
	}
	if err := rc.step(chosen, out); err != nil {
		return "", err
	}

	return out, nil
}

// pickCandidate matches the triage decision against candidate ids by
// case-insensitive substring, first declared match wins. No match means the
// fallback candidate.
func (e *Engine) pickCandidate(rc *runContext, decision string) *core.Executor {
	lowered := strings.ToLower(decision)

	for _, cand := range rc.graph.Candidates() {
		if strings.Contains(lowered, strings.ToLower(cand.ID())) {
			return cand
		}
	}

	fallback, _ := rc.graph.Executor(rc.graph.FallbackID())
	e.logger.Warn("routing decision matched no candidate, using fallback run_id=%s fallback=%s decision=%q", rc.runID, fallback.ID(), decision)

	return fallback
}

// routingPrompt renders the triage instruction listing the candidates and
// their descriptions.
func routingPrompt(rc *runContext, input string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Route the following request to exactly one of these specialists:\n")
	for _, cand := range rc.graph.Candidates() {
		fmt.Fprintf(&b, "  - %s: %s\n", cand.ID(), cand.Description())
	}
	b.WriteString("Reply with the name of the specialist best suited to handle it.\n\n")
	b.WriteString("Request: ")
	b.WriteString(input)

	return b.String()
}
