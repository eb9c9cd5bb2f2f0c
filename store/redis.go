package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Records are stored as JSON under
// <prefix><key>, with an optional TTL providing storage-side eviction.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// Prefix namespaces all keys written by this store.
	Prefix string
	// TTL expires records after the given duration; 0 keeps them forever.
	TTL time.Duration
}

// WithPrefix sets the key prefix (default "agentweave:conv:").
func WithPrefix(prefix string) func(o *RedisOptions) {
	return func(o *RedisOptions) { o.Prefix = prefix }
}

// WithTTL sets the record expiration.
func WithTTL(ttl time.Duration) func(o *RedisOptions) {
	return func(o *RedisOptions) { o.TTL = ttl }
}

// NewRedisStore connects to Redis at addr and wraps it in a store.
func NewRedisStore(addr, password string, db int, optFns ...func(o *RedisOptions)) *RedisStore {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return NewRedisStoreFromClient(client, optFns...)
}

// NewRedisStoreFromClient wraps an existing client, e.g. one shared with the
// rest of the application or a test harness.
func NewRedisStoreFromClient(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{Prefix: "agentweave:conv:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	return &rec, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, rec *Record) error {
	clone := rec.Clone()
	clone.Key = key
	clone.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(clone)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}

	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
