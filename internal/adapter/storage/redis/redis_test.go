package redis

import (
	"context"
	"strconv"
	"testing"

	"bank-transfer-saga/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Host: "redis.internal", Port: 6380, Password: "pw", DB: 2})

	assert.Equal(t, "redis.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Host: mr.Host(), Port: portOf(t, mr)}

	client, err := NewClient(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Host: mr.Host(), Port: portOf(t, mr)}
	mr.Close()

	_, err := NewClient(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func portOf(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
