package redis

import (
	"context"
	"fmt"
	"time"

	"bank-transfer-saga/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "bank:ratelimit:"

// RateLimitStore implements ports.RateLimitStore with fixed-window counters.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: rateLimitPrefix,
		now:    time.Now,
	}
}

// Allow counts one hit against key. The counter lives under a key scoped to
// the current window, so a new window always starts from zero.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	windowID := s.now().Unix() / seconds
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	var incr *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, time.Duration(seconds)*time.Second+time.Second)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}
	count := incr.Val()

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &ports.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * seconds,
	}, nil
}

var _ ports.RateLimitStore = (*RateLimitStore)(nil)
