package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a volatile Store keeping records in a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// demo setups. Records are cloned on the way in and out to prevent external
// mutation of internal state. When a capacity is configured, saving beyond it
// evicts the least-recently-updated record.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*Record
	maxEntries int
}

// InMemoryOptions configures an InMemoryStore.
type InMemoryOptions struct {
	// MaxEntries caps the number of retained records; 0 means unbounded.
	MaxEntries int
}

// WithMaxEntries caps retained records, evicting the least recently updated.
func WithMaxEntries(n int) func(o *InMemoryOptions) {
	return func(o *InMemoryOptions) { o.MaxEntries = n }
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore(optFns ...func(o *InMemoryOptions)) *InMemoryStore {
	opts := InMemoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{records: make(map[string]*Record), maxEntries: opts.MaxEntries}
}

// Load returns a clone of the record stored under key, or ErrNotFound.
func (s *InMemoryStore) Load(_ context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Save stores a clone of the record, stamping UpdatedAt and evicting the
// least-recently-updated record when over capacity.
func (s *InMemoryStore) Save(_ context.Context, key string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := rec.Clone()
	clone.Key = key
	clone.UpdatedAt = time.Now().UTC()
	s.records[key] = clone

	if s.maxEntries > 0 && len(s.records) > s.maxEntries {
		s.evictOldestLocked()
	}
	return nil
}

// Delete removes the record under key; deleting a missing key is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len returns the number of retained records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *InMemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, rec := range s.records {
		if first || rec.UpdatedAt.Before(oldest) {
			oldestKey, oldest = k, rec.UpdatedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(s.records, oldestKey)
	}
}
