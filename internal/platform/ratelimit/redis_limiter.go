// Package ratelimit admits vote requests before they reach the core: a fixed
// window per client over Redis, plus a noop mode for local runs.
package ratelimit

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rakibhasan/jonomot/internal/domain"
)

var ErrRateLimitExceeded = fmt.Errorf("vote limit reached")

// RedisRateLimiter counts requests per hashed ip/user-agent pair in fixed
// windows.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, ip, userAgent string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Invalid configuration falls back to permissive mode.
		return nil
	}

	key := r.buildKey(ip, userAgent)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ratelimit: increment key: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("ratelimit: set expiry: %w", err)
		}
	}

	if int(count) > r.limit {
		return ErrRateLimitExceeded
	}

	return nil
}

func (r *RedisRateLimiter) buildKey(ip, userAgent string) string {
	// SHA-1 keeps raw IP/UA values out of Redis and the key space flat.
	hash := sha1.Sum([]byte(ip + "|" + userAgent))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.RateLimiter = (*RedisRateLimiter)(nil)
