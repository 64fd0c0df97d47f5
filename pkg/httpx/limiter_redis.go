package httpx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisLimiterPrefix = "gatekeep:rl:"

// Fixed window counter. Returns {allowed, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[2])
end

if current > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

// RedisLimiter shares a fixed window counter between replicas.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, cfg RateLimitConfig, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultRedisLimiterPrefix
	}
	return &RedisLimiter{
		client: client,
		limit:  cfg.RequestsPerWindow,
		window: cfg.Window,
		prefix: prefix,
	}
}

// RedisLimiterFactory returns a LimiterFactory backed by client.
func RedisLimiterFactory(client redis.UniversalClient) LimiterFactory {
	return func(cfg RateLimitConfig) Limiter {
		return NewRedisLimiter(client, cfg, "")
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowMS := l.window.Milliseconds()
	if windowMS <= 0 {
		return false, 0, errors.New("httpx: invalid rate limit window")
	}

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowMS).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, errors.New("httpx: unexpected redis limiter response")
	}

	retryAfter := max(time.Duration(res[1])*time.Millisecond, 0)
	return res[0] == 1, retryAfter, nil
}
