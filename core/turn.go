package core

import (
	"sync"
	"time"
)

// Role identifies the kind of speaker that produced a turn.
type Role string

const (
	// RoleUser marks a turn supplied by the caller of a workflow run.
	RoleUser Role = "user"
	// RoleAgent marks a turn produced by an executor.
	RoleAgent Role = "agent"
)

// Turn is one immutable unit of conversation output. It is created once, on
// executor (or user input) completion, and never mutated or removed.
type Turn struct {
	SpeakerID string    `json:"speaker_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user-authored turn for the supplied input text.
func NewUserTurn(text string) Turn {
	return Turn{SpeakerID: "user", Role: RoleUser, Text: text, Timestamp: time.Now().UTC()}
}

// NewAgentTurn creates an agent-authored turn carrying speaker provenance.
func NewAgentTurn(speakerID, text string) Turn {
	return Turn{SpeakerID: speakerID, Role: RoleAgent, Text: text, Timestamp: time.Now().UTC()}
}

// Conversation is the ordered, append-only sequence of turns shared across
// one workflow run. It is exclusively mutated by the execution engine for the
// duration of the run and frozen when the run completes. All methods are safe
// for concurrent use; appends are serialized so two branches can never
// interleave a partial append.
type Conversation struct {
	mu     sync.RWMutex
	turns  []Turn
	frozen bool
}

// NewConversation creates a conversation, optionally seeded with prior turns
// from an earlier run (e.g. loaded from a ContextStore).
func NewConversation(prior ...Turn) *Conversation {
	c := &Conversation{turns: make([]Turn, len(prior))}
	copy(c.turns, prior)
	return c
}

// Append adds a turn to the conversation. It fails once the conversation has
// been frozen at run end.
func (c *Conversation) Append(t Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrConversationFrozen
	}
	c.turns = append(c.turns, t)
	return nil
}

// Snapshot returns a defensive copy of the current turn sequence. Concurrent
// branches each receive the identical pre-fan-out snapshot taken by the
// engine; responders never get write access to the live conversation.
func (c *Conversation) Snapshot() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	return turns
}

// Len returns the number of turns appended so far.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Freeze marks the conversation read-only and returns the final turn
// sequence. Subsequent Append calls fail with ErrConversationFrozen.
func (c *Conversation) Freeze() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	return turns
}
