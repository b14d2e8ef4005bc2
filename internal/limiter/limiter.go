// Package limiter implements a fixed-window request limiter backed by Redis.
package limiter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts attempts per key in fixed windows. When Redis is unreachable
// it can either fail open (allow the attempt) or fail closed, depending on
// configuration.
type Limiter struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	failOpen bool
}

// New creates a limiter allowing limit attempts per window.
func New(client *redis.Client, limit int, window time.Duration, failOpen bool) *Limiter {
	return &Limiter{
		client:   client,
		limit:    limit,
		window:   window,
		failOpen: failOpen,
	}
}

// Allow records an attempt for key and reports whether it is within the
// window's budget. The counter key gets its TTL on the first attempt of each
// window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	counterKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		if l.failOpen {
			log.Printf("[Limiter] Redis unavailable, failing open: %v", err)
			return true, nil
		}
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			log.Printf("[Limiter] Failed to set window TTL for %s: %v", counterKey, err)
		}
	}

	return count <= int64(l.limit), nil
}
