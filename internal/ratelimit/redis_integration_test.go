//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_FixedWindow(t *testing.T) {
	addr := os.Getenv("IT_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	lim := NewRedis(rdb)
	ctx := context.Background()
	key := "it:" + uuid.NewString()
	window := 1500 * time.Millisecond

	for i := 0; i < 2; i++ {
		res, err := lim.Check(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := lim.Check(ctx, key, 2, window)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfterSeconds)

	time.Sleep(window + 200*time.Millisecond)
	res, err = lim.Check(ctx, key, 2, window)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}
