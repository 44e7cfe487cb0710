package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrUnavailable = errors.New("rate limiter backend unavailable")
)

// Limiter is a fixed-window counter per key.
type Limiter struct {
	client goredis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewLimiter(client goredis.UniversalClient, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow counts one hit for key and returns ErrRateLimited once the window's
// budget is spent. The TTL is set only on the first hit so the window does
// not slide.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	k := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count > l.limit {
		return ErrRateLimited
	}
	return nil
}
