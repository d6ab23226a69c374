package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLimiter_BurstThenReject(t *testing.T) {
	rdb := newRedis(t)
	now := time.UnixMilli(1_700_000_000_000)
	l := New(rdb, "test", 1, 3)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, wait, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestLimiter_Refills(t *testing.T) {
	rdb := newRedis(t)
	now := time.UnixMilli(1_700_000_000_000)
	l := New(rdb, "test", 2, 1)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(500 * time.Millisecond)
	ok, _, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_DisabledAlwaysAllows(t *testing.T) {
	l := New(nil, "", 0, 0)
	ok, _, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)

	var nilLimiter *Limiter
	ok, _, err = nilLimiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_RedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rdb.Close()
	l := New(rdb, "test", 1, 1)

	_, _, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
