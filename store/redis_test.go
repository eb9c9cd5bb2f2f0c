package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
)

func newTestRedisStore(t *testing.T, optFns ...func(o *RedisOptions)) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreFromClient(client, optFns...), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := &Record{
		Turns:       []core.Turn{core.NewUserTurn("hello"), core.NewAgentTurn("a", "hi")},
		PolicyState: map[string]any{"iteration_count": 2},
	}
	require.NoError(t, s.Save(ctx, "conv-1", rec))

	loaded, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", loaded.Key)
	require.Len(t, loaded.Turns, 2)
	assert.Equal(t, "hello", loaded.Turns[0].Text)
	assert.Equal(t, core.RoleAgent, loaded.Turns[1].Role)

	// JSON round trip turns numbers into float64.
	assert.Equal(t, float64(2), loaded.PolicyState["iteration_count"])
}

func TestRedisStore_LoadMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conv-1", &Record{}))
	require.NoError(t, s.Delete(ctx, "conv-1"))

	_, err := s.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	s, mr := newTestRedisStore(t, WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conv-1", &Record{}))
	assert.True(t, mr.Exists("custom:conv-1"))
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newTestRedisStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conv-1", &Record{}))

	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
