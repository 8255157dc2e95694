package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter keyed by an arbitrary string.
type Limiter interface {
	// Allow counts one hit against key and reports whether it stays within
	// limit for the current window. When it does not, retryAfter is the time
	// left until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

type windowLimiter struct {
	client *redis.Client
	prefix string
}

// NewLimiter returns a Redis-backed limiter. A nil client yields a limiter
// that allows everything.
func NewLimiter(client *redis.Client, prefix string) Limiter {
	if client == nil {
		return noopLimiter{}
	}
	return &windowLimiter{client: client, prefix: prefix}
}

func (l *windowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	if n <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// Key lost its expiry (crash between INCR and EXPIRE); reset the window.
		_ = l.client.Expire(ctx, k, window).Err()
		ttl = window
	}
	return false, ttl, nil
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return true, 0, nil
}
