package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisFixedWindowLimiter shares counters across instances. Each key gets
// one counter per window; the burst settings of the policy are not applied.
func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) Limiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &redisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *redisFixedWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	now := time.Now()
	windowStart := now.Truncate(policy.SustainedWindow)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.UnixMilli())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, policy.SustainedWindow)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	resetAt := windowStart.Add(policy.SustainedWindow)
	remaining := policy.SustainedLimit - count
	if remaining < 0 {
		remaining = 0
	}
	if count > policy.SustainedLimit {
		retry := resetAt.Sub(now)
		if retry <= 0 {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry, Remaining: 0, ResetAt: resetAt, Reason: "window"}, nil
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}, nil
}
