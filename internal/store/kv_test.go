package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, err := kv.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, kv.Set(ctx, "k", "v1", 0))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, kv.Set(ctx, "k", "v2", 0))
	v, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	now = now.Add(59 * time.Second)
	_, err := kv.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = kv.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestRedisKV_Unreachable(t *testing.T) {
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer c.Close()
	kv := NewRedisKV(c)

	_, err := kv.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
}
