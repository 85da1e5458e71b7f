package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindowLimiter counts requests per key in a fixed window shared
// across all server instances. The counter key carries the window TTL, so
// Redis reaps state on its own.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "rate_limit"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	counterKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return Decision{}, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, policy.Window).Err(); err != nil {
			return Decision{}, err
		}
	}

	ttl, err := l.client.PTTL(ctx, counterKey).Result()
	if err != nil {
		return Decision{}, err
	}
	if ttl <= 0 {
		// The key lost its TTL (flushed or expired between commands).
		// Treat the current window as just opened.
		ttl = policy.Window
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(policy.Limit) {
		return Decision{
			Allowed:    false,
			RetryAfter: ttl,
			Remaining:  0,
			ResetAt:    resetAt,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Remaining: policy.Limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
