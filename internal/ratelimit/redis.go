package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ratelimit:"

// fixedWindowScript returns {allowed, count, pttl}. The key expires with the window.
var fixedWindowScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
if cur >= max then
  local ttl = redis.call("PTTL", KEYS[1])
  if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], window)
    ttl = window
  end
  return {0, cur, ttl}
end
cur = redis.call("INCR", KEYS[1])
if cur == 1 then
  redis.call("PEXPIRE", KEYS[1], window)
end
return {1, cur, redis.call("PTTL", KEYS[1])}
`)

var _ Limiter = (*Redis)(nil)

// Redis shares buckets between api instances.
type Redis struct {
	rdb    redis.Scripter
	prefix string
}

func NewRedis(rdb redis.Scripter) *Redis {
	return &Redis{rdb: rdb, prefix: defaultKeyPrefix}
}

func (r *Redis) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{r.prefix + key}, max, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("ratelimit script: unexpected reply %v", vals)
	}
	if vals[0] == 1 {
		remaining := max - int(vals[1])
		if remaining < 0 {
			remaining = 0
		}
		return Result{Allowed: true, Remaining: remaining}, nil
	}
	return Result{
		Allowed:           false,
		RetryAfterSeconds: retryAfter(time.Duration(vals[2]) * time.Millisecond),
	}, nil
}
