// Package workflow describes executable agent workflow graphs: which
// executors participate, how control moves between them (the topology and,
// for handoff, the declared edge set) and the termination policy bounding a
// run. Graphs are validated at construction and immutable afterwards, so one
// graph can safely drive many concurrent runs.
package workflow

import (
	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/selector"
)

// Topology is the structural pattern governing how executors are invoked.
type Topology string

const (
	// TopologySequential runs executors one after another, chaining outputs.
	TopologySequential Topology = "sequential"
	// TopologyConcurrent fans the same prompt out to all executors and joins.
	TopologyConcurrent Topology = "concurrent"
	// TopologyRouted lets a triage executor pick a single candidate.
	TopologyRouted Topology = "routed"
	// TopologyHandoff lets the active executor transfer control over edges.
	TopologyHandoff Topology = "handoff"
	// TopologyGroupChat runs a turn-based conversation among participants.
	TopologyGroupChat Topology = "groupchat"
)

// Edge declares a legal handoff relation between two executors.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the immutable description of a workflow: executors, edges,
// topology and termination policy. Build one through the New* constructors;
// direct construction bypasses validation.
type Graph struct {
	name          string
	topology      Topology
	executors     []*core.Executor
	byID          map[string]*core.Executor
	edges         []Edge
	entryID       string
	fallbackID    string
	maxIterations int
	maxHandoffs   int
	provider      selector.Provider
}

// Name returns the graph's display name.
func (g *Graph) Name() string { return g.name }

// Topology returns the graph's execution topology.
func (g *Graph) Topology() Topology { return g.topology }

// Executors returns the executors in declaration order. For routed graphs the
// triage executor comes first, followed by the candidates.
func (g *Graph) Executors() []*core.Executor {
	out := make([]*core.Executor, len(g.executors))
	copy(out, g.executors)
	return out
}

// Executor looks up an executor by id.
func (g *Graph) Executor(id string) (*core.Executor, bool) {
	ex, ok := g.byID[id]
	return ex, ok
}

// Edges returns the declared handoff relations (handoff topology only).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EntryID returns the initial executor for handoff graphs or the triage
// executor for routed graphs.
func (g *Graph) EntryID() string { return g.entryID }

// FallbackID returns the default candidate used when routing finds no match.
func (g *Graph) FallbackID() string { return g.fallbackID }

// MaxIterations returns the group-chat iteration ceiling.
func (g *Graph) MaxIterations() int { return g.maxIterations }

// MaxHandoffs returns the transfer ceiling bounding handoff loops.
func (g *Graph) MaxHandoffs() int { return g.maxHandoffs }

// NewSelector returns a fresh per-run turn selector (group chat only).
// Selector state is per run; graphs stay reusable.
func (g *Graph) NewSelector() selector.TurnSelector {
	if g.provider == nil {
		return selector.NewRoundRobin(g.maxIterations)
	}
	return g.provider()
}

// Candidates returns the routing candidates in declaration order (routed
// topology only).
func (g *Graph) Candidates() []*core.Executor {
	if g.topology != TopologyRouted || len(g.executors) == 0 {
		return nil
	}
	out := make([]*core.Executor, len(g.executors)-1)
	copy(out, g.executors[1:])
	return out
}

// TargetsFrom returns the executor ids reachable from the given executor via
// declared edges, in declaration order.
func (g *Graph) TargetsFrom(id string) []string {
	var targets []string
	for _, e := range g.edges {
		if e.From == id {
			targets = append(targets, e.To)
		}
	}
	return targets
}
