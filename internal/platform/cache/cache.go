// Package cache implements the read-through results cache. Every backend
// failure is an explicit fallback branch: reads fall through to the compute
// function, writes and deletes are logged and swallowed. The cached payload
// is the serialized bytes, returned verbatim on a hit so the embedded compute
// timestamp stays frozen for the life of the entry.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rakibhasan/jonomot/internal/domain"
	"github.com/rakibhasan/jonomot/internal/platform/logger"
	"github.com/rakibhasan/jonomot/internal/platform/metrics"
)

// Redis serves cached artifacts by logical name. A nil client means caching
// is disabled and every lookup computes from source.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (c *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.client == nil {
		metrics.ObserveCacheLookup("bypass")
		return compute(ctx)
	}

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case err == nil:
		metrics.ObserveCacheLookup("hit")
		return raw, nil
	case errors.Is(err, redis.Nil):
		metrics.ObserveCacheLookup("miss")
	default:
		// Backend unreachable; serve from source and keep the request alive.
		metrics.ObserveCacheLookup("bypass")
		logger.Warn("cache read failed, computing from source", "key", key, "err", err)
	}

	payload, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, c.key(key), payload, ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
	}
	return payload, nil
}

func (c *Redis) Invalidate(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		logger.Warn("cache invalidate failed", "key", key, "err", err)
	}
}

func (c *Redis) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

var _ domain.ResultsCache = (*Redis)(nil)
