package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"bank-transfer-saga/internal/core/domain"
)

// AccountStore keeps the latest snapshot of every account.
//
// Get hands out an independent copy. Save inserts an account the first time
// it is seen; afterwards it succeeds only if the stored revision is still the
// one the caller read, and fails with domain.ErrConflict otherwise.
type AccountStore interface {
	GenerateIdentifier() domain.AccountID
	Get(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	Save(ctx context.Context, account *domain.Account) error
	List(ctx context.Context) ([]*domain.Account, error)
}

// DeadLetterRepository is an append-only record of events that could not be
// handled.
type DeadLetterRepository interface {
	Append(ctx context.Context, dl domain.DeadLetter) error
	List(ctx context.Context) ([]domain.DeadLetter, error)
}

// AuditRepository persists audit trail entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// RateLimitResult is the outcome of a single rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix seconds
}

// RateLimitStore counts hits per key inside a fixed window.
type RateLimitStore interface {
	// Allow increments the counter for key and reports whether it is still
	// within limit for the current window.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}
