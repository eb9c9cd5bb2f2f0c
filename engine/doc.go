// Package engine drives workflow graphs to completion. A run selects active
// executors per the graph's topology, invokes their responders, appends
// results as turns to the shared conversation and emits a stream of events
// that always ends in a terminal workflow_output or failed event.
//
// The engine is the only writer of a run's conversation: concurrent branch
// completions are serialized through a single collector, so partial appends
// can never interleave. Cancellation propagates through the run context to
// every in-flight responder call.
package engine
