package workflow

import (
	"fmt"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/selector"
)

const (
	// DefaultMaxHandoffs bounds transfer loops generously; most legitimate
	// handoff chains are a handful of transfers deep.
	DefaultMaxHandoffs = 25
	// DefaultMaxIterations bounds a group chat when no explicit ceiling is set.
	DefaultMaxIterations = 10
)

// GraphOptions holds optional graph configuration shared by the builders.
type GraphOptions struct {
	// MaxIterations is the group-chat iteration ceiling.
	MaxIterations int
	// MaxHandoffs bounds agent-initiated transfers in a handoff graph.
	MaxHandoffs int
	// Fallback names the routed candidate used when the triage decision
	// matches nothing. Defaults to the first candidate.
	Fallback string
	// Selector provides a fresh per-run turn selector for group chats.
	Selector selector.Provider
	// Logger receives build-time warnings (e.g. unreachable executors).
	Logger logging.Logger
}

// WithMaxIterations sets the group-chat iteration ceiling.
func WithMaxIterations(n int) func(o *GraphOptions) {
	return func(o *GraphOptions) { o.MaxIterations = n }
}

// WithMaxHandoffs sets the transfer ceiling for handoff graphs.
func WithMaxHandoffs(n int) func(o *GraphOptions) {
	return func(o *GraphOptions) { o.MaxHandoffs = n }
}

// WithFallback names the default routed candidate.
func WithFallback(id string) func(o *GraphOptions) {
	return func(o *GraphOptions) { o.Fallback = id }
}

// WithSelector sets the per-run turn selector provider for group chats.
func WithSelector(p selector.Provider) func(o *GraphOptions) {
	return func(o *GraphOptions) { o.Selector = p }
}

// WithLogger sets the logger receiving build-time warnings.
func WithLogger(l logging.Logger) func(o *GraphOptions) {
	return func(o *GraphOptions) { o.Logger = l }
}

func buildOptions(optFns []func(o *GraphOptions)) GraphOptions {
	opts := GraphOptions{
		MaxIterations: DefaultMaxIterations,
		MaxHandoffs:   DefaultMaxHandoffs,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// indexExecutors validates id uniqueness and builds the lookup map.
func indexExecutors(executors []*core.Executor) (map[string]*core.Executor, error) {
	byID := make(map[string]*core.Executor, len(executors))
	for _, ex := range executors {
		if ex == nil {
			return nil, fmt.Errorf("%w: nil executor", core.ErrInvalidTopology)
		}
		if ex.ID() == "" {
			return nil, fmt.Errorf("%w: executor with empty id", core.ErrInvalidTopology)
		}
		if _, exists := byID[ex.ID()]; exists {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateExecutorID, ex.ID())
		}
		byID[ex.ID()] = ex
	}
	return byID, nil
}

// NewSequential builds a pipeline graph executing the given executors in
// order, each step's output feeding the next step's input.
func NewSequential(name string, executors ...*core.Executor) (*Graph, error) {
	if len(executors) == 0 {
		return nil, fmt.Errorf("%w: sequential graph %q needs at least one executor", core.ErrInvalidTopology, name)
	}

	byID, err := indexExecutors(executors)
	if err != nil {
		return nil, err
	}

	return &Graph{name: name, topology: TopologySequential, executors: executors, byID: byID}, nil
}

// NewConcurrent builds a fan-out/fan-in graph dispatching the same prompt to
// every executor and joining all results.
func NewConcurrent(name string, executors ...*core.Executor) (*Graph, error) {
	if len(executors) == 0 {
		return nil, fmt.Errorf("%w: concurrent graph %q needs at least one executor", core.ErrInvalidTopology, name)
	}

	byID, err := indexExecutors(executors)
	if err != nil {
		return nil, err
	}

	return &Graph{name: name, topology: TopologyConcurrent, executors: executors, byID: byID}, nil
}

// NewRouted builds a content-based routing graph: the triage executor emits a
// free-text decision and the first candidate whose id occurs in it (case
// insensitive, declaration order) answers the request. When nothing matches,
// the fallback candidate answers; routing never hard-fails on malformed
// decisions.
func NewRouted(name string, triage *core.Executor, candidates []*core.Executor, optFns ...func(o *GraphOptions)) (*Graph, error) {
	opts := buildOptions(optFns)

	if triage == nil {
		return nil, fmt.Errorf("%w: routed graph %q needs a triage executor", core.ErrInvalidTopology, name)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: routed graph %q needs at least one candidate", core.ErrInvalidTopology, name)
	}

	for _, c := range candidates {
		if c != nil && c.ID() == triage.ID() {
			return nil, fmt.Errorf("%w: triage %s must not appear among candidates", core.ErrInvalidTopology, triage.ID())
		}
	}

	executors := append([]*core.Executor{triage}, candidates...)
	byID, err := indexExecutors(executors)
	if err != nil {
		return nil, err
	}

	fallback := opts.Fallback
	if fallback == "" {
		fallback = candidates[0].ID()
	} else if _, ok := byID[fallback]; !ok || fallback == triage.ID() {
		return nil, fmt.Errorf("%w: fallback %s is not a candidate", core.ErrInvalidTopology, fallback)
	}

	return &Graph{
		name:       name,
		topology:   TopologyRouted,
		executors:  executors,
		byID:       byID,
		entryID:    triage.ID(),
		fallbackID: fallback,
	}, nil
}

// NewHandoff builds a dynamic-dispatch graph. The initial executor starts
// active; each turn's output either terminates the run or transfers control
// along a declared edge. Edge endpoints must reference declared executors.
// Executors unreachable from the initial executor are warned about but not
// rejected.
func NewHandoff(name string, initial *core.Executor, executors []*core.Executor, edges []Edge, optFns ...func(o *GraphOptions)) (*Graph, error) {
	opts := buildOptions(optFns)

	if initial == nil {
		return nil, fmt.Errorf("%w: handoff graph %q needs an initial executor", core.ErrInvalidTopology, name)
	}

	all := executors
	found := false
	for _, ex := range executors {
		if ex == initial {
			found = true
			break
		}
	}
	if !found {
		all = append([]*core.Executor{initial}, executors...)
	}

	byID, err := indexExecutors(all)
	if err != nil {
		return nil, err
	}

	// Fold targets declared on the executors themselves into the edge set.
	edgeSet := make(map[Edge]bool, len(edges))
	combined := make([]Edge, 0, len(edges))
	addEdge := func(e Edge) {
		if !edgeSet[e] {
			edgeSet[e] = true
			combined = append(combined, e)
		}
	}
	for _, e := range edges {
		addEdge(e)
	}
	for _, ex := range all {
		for _, target := range ex.HandoffTargets() {
			addEdge(Edge{From: ex.ID(), To: target})
		}
	}

	for _, e := range combined {
		if _, ok := byID[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge references undeclared executor %s", core.ErrInvalidTopology, e.From)
		}
		if _, ok := byID[e.To]; !ok {
			return nil, fmt.Errorf("%w: edge references undeclared executor %s", core.ErrInvalidTopology, e.To)
		}
	}

	warnUnreachable(opts.Logger, name, initial.ID(), all, combined)

	return &Graph{
		name:        name,
		topology:    TopologyHandoff,
		executors:   all,
		byID:        byID,
		edges:       combined,
		entryID:     initial.ID(),
		maxHandoffs: opts.MaxHandoffs,
	}, nil
}

// NewGroupChat builds a turn-based conversation among the participants,
// driven by a per-run turn selector (round-robin by default).
func NewGroupChat(name string, participants []*core.Executor, optFns ...func(o *GraphOptions)) (*Graph, error) {
	opts := buildOptions(optFns)

	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: group chat %q needs at least two participants", core.ErrInvalidTopology, name)
	}

	byID, err := indexExecutors(participants)
	if err != nil {
		return nil, err
	}

	provider := opts.Selector
	if provider == nil {
		maxIters := opts.MaxIterations
		provider = func() selector.TurnSelector { return selector.NewRoundRobin(maxIters) }
	}

	return &Graph{
		name:          name,
		topology:      TopologyGroupChat,
		executors:     participants,
		byID:          byID,
		maxIterations: opts.MaxIterations,
		provider:      provider,
	}, nil
}

// warnUnreachable flags executors not reachable from the entry via edges.
func warnUnreachable(logger logging.Logger, graph, entry string, executors []*core.Executor, edges []Edge) {
	reachable := map[string]bool{entry: true}
	frontier := []string{entry}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, e := range edges {
			if e.From == id && !reachable[e.To] {
				reachable[e.To] = true
				frontier = append(frontier, e.To)
			}
		}
	}
	for _, ex := range executors {
		if !reachable[ex.ID()] {
			logger.Warn("handoff graph %s: executor %s is unreachable from %s", graph, ex.ID(), entry)
		}
	}
}
