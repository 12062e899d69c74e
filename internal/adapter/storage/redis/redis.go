package redis

import (
	"context"
	"fmt"
	"time"

	"bank-transfer-saga/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const connectTimeout = 5 * time.Second

// NewClient opens a Redis client and fails unless the server answers a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("redis connected")

	return client, nil
}

func options(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
