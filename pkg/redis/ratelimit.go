package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set scored by request time in milliseconds.
// Returns {allowed, oldest score still inside the window}.
var slidingWindowScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, now - window)
if redis.call('ZCARD', KEYS[1]) >= limit then
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  return {0, tonumber(oldest[2])}
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, 0}
`)

// CheckRateLimit records one request under key and reports whether it fits
// within limit requests per window. A rejected request also gets the time
// until the oldest counted request leaves the window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, c.rdb, []string{key},
		now, window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	return false, retryAfter(now, res[1], window), nil
}

// retryAfter is the wait until a request stamped oldest (ms) expires.
func retryAfter(now, oldest int64, window time.Duration) time.Duration {
	wait := time.Duration(oldest+window.Milliseconds()-now) * time.Millisecond
	if wait < 0 {
		return 0
	}
	return wait
}
