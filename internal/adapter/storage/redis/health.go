package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const healthTimeout = 2 * time.Second

// RateLimitHealth reports whether the rate-limit backend answers. The
// limiter itself fails open, so an outage is only visible here.
type RateLimitHealth struct {
	client *goredis.Client
}

func NewHealthCheck(client *goredis.Client) *RateLimitHealth {
	return &RateLimitHealth{client: client}
}

func (h *RateLimitHealth) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rate-limit store %s: %w", h.client.Options().Addr, err)
	}
	return nil
}

func (h *RateLimitHealth) Name() string {
	return "redis-ratelimit"
}
