// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterStore is the slice of redis the limiter needs.
type counterStore interface {
	// incr bumps key and reports the new count with the key's remaining TTL.
	// A negative TTL means the key has no expiry.
	incr(ctx context.Context, key string) (int64, time.Duration, error)
	expire(ctx context.Context, key string, window time.Duration) error
}

type redisCounter struct {
	client *redis.Client
}

func (r redisCounter) incr(ctx context.Context, key string) (int64, time.Duration, error) {
	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return count.Val(), ttl.Val(), nil
}

func (r redisCounter) expire(ctx context.Context, key string, window time.Duration) error {
	return r.client.Expire(ctx, key, window).Err()
}

// RateLimiter is a fixed-window counter kept in redis. Each limiter owns a
// prefix so separate routes keep separate budgets.
type RateLimiter struct {
	store  counterStore
	prefix string
}

func NewRateLimiter(client *redis.Client, prefix string) *RateLimiter {
	return &RateLimiter{store: redisCounter{client: client}, prefix: prefix}
}

// Allow counts one hit for key in the current window. It returns whether the
// hit is within limit and how many remain.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := fmt.Sprintf("ratelimit:%s:%s", r.prefix, key)

	count, ttl, err := r.store.incr(ctx, k)
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Any hit that finds the counter without an expiry opens the window,
	// so a failed expire on the first hit is repaired by the next one.
	if ttl < 0 {
		if err := r.store.expire(ctx, k, window); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, nil
}
