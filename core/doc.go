// Package core defines the shared data model of AgentWeave: conversation
// turns, the append-only Conversation owned by a running workflow, executors
// binding a Responder capability to an identity, the workflow event stream
// vocabulary and the error taxonomy. Higher layers (workflow, engine,
// selector, handoff) build on these types without introducing cycles.
package core
