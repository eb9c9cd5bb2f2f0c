// Package handoff implements agent-initiated transfer of control. The
// Registry exposes the legal transfer intents of the currently active
// executor (one per outgoing edge) and parses a chosen target from its
// free-text output. Parsing never validates: the output is untrusted LLM
// text, so the engine checks every parsed target against the declared edge
// set before following it. This agent-driven dispatch is what distinguishes
// handoff from routed topology, where a central triage node computes the
// whole routing decision before any specialist runs.
package handoff

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agentweave/workflow"
)

// Intent is one legal transfer option available to an active executor.
type Intent struct {
	Target      string
	Description string
}

// transferPattern matches the first "TRANSFER(<target>): <reason>" line in an
// executor's output, case insensitive.
var transferPattern = regexp.MustCompile(`(?im)^\s*TRANSFER\(([^)\s]+)\)\s*:?\s*(.*)$`)

// Registry holds the per-executor transfer intents of one handoff graph.
type Registry struct {
	intents map[string][]Intent
}

// NewRegistry derives a registry from the graph's declared edge set, keeping
// declaration order per executor.
func NewRegistry(g *workflow.Graph) *Registry {
	intents := make(map[string][]Intent)
	for _, edge := range g.Edges() {
		desc := ""
		if target, ok := g.Executor(edge.To); ok {
			desc = target.Description()
		}
		intents[edge.From] = append(intents[edge.From], Intent{Target: edge.To, Description: desc})
	}
	return &Registry{intents: intents}
}

// ForExecutor returns the ordered legal transfer intents for the executor.
func (r *Registry) ForExecutor(id string) []Intent {
	src := r.intents[id]
	out := make([]Intent, len(src))
	copy(out, src)
	return out
}

// Instructions renders the prompt fragment telling the active executor how to
// request a transfer. Empty when the executor has no outgoing edges.
func (r *Registry) Instructions(id string) string {
	intents := r.intents[id]
	if len(intents) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You may transfer this conversation to one of the following:\n")
	for _, in := range intents {
		fmt.Fprintf(&b, "  - %s: %s\n", in.Target, in.Description)
	}
	b.WriteString("To transfer, reply with a line of the form TRANSFER(<name>): <reason>.\n")
	b.WriteString("Otherwise answer directly to end the conversation.")
	return b.String()
}

// ParseIntent extracts the first transfer request from the executor's output.
// ok is false when the output contains no transfer line, which makes the
// output terminal.
func (r *Registry) ParseIntent(output string) (target, reason string, ok bool) {
	m := transferPattern.FindStringSubmatch(output)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Resolve maps a parsed target onto the declared intent's canonical id,
// tolerating case differences in the untrusted output. ok is false when no
// declared edge allows the transfer.
func (r *Registry) Resolve(from, target string) (string, bool) {
	for _, in := range r.intents[from] {
		if strings.EqualFold(in.Target, target) {
			return in.Target, true
		}
	}
	return "", false
}
