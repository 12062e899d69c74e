package postgres

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// HealthCheck implements ports.HealthChecker for the archive database.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping fails if the database does not answer within pingTimeout.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.pool.Ping(ctx)
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
