package ratelimit

import (
	"context"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// Noop is the disabled rate-limit strategy.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Allow(ctx context.Context, ip, userAgent string) error {
	return nil
}

var _ domain.RateLimiter = Noop{}
