// Package store persists conversation contexts plus opaque per-topology
// policy state between workflow runs. It is an externally-owned keyed store
// injected into the engine per run: the engine performs an explicit
// get-or-create against it instead of holding any ambient conversation map.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentweave/core"
)

// ErrNotFound reports a missing conversation record.
var ErrNotFound = errors.New("conversation not found")

// Record is the unit of persistence: the frozen turn sequence of a
// conversation plus whatever policy state the run's selector exported.
type Record struct {
	Key         string         `json:"key"`
	Turns       []core.Turn    `json:"turns"`
	PolicyState map[string]any `json:"policy_state,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a deep copy safe for independent mutation.
func (r *Record) Clone() *Record {
	c := &Record{Key: r.Key, UpdatedAt: r.UpdatedAt}
	c.Turns = make([]core.Turn, len(r.Turns))
	copy(c.Turns, r.Turns)
	if r.PolicyState != nil {
		c.PolicyState = make(map[string]any, len(r.PolicyState))
		for k, v := range r.PolicyState {
			c.PolicyState[k] = v
		}
	}
	return c
}

// Store round-trips conversation records between runs. The engine only
// depends on the shape preserved here, not on the storage format.
type Store interface {
	Load(ctx context.Context, key string) (*Record, error)
	Save(ctx context.Context, key string, rec *Record) error
	Delete(ctx context.Context, key string) error
}
