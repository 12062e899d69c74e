package postgres

import (
	"context"
	"fmt"
)

// schema holds the archive tables. Account state is never stored here.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS dead_letters (
		id             UUID PRIMARY KEY,
		event_id       UUID NOT NULL,
		event_kind     TEXT NOT NULL,
		transfer_id    UUID NOT NULL,
		source_account TEXT NOT NULL,
		target_account TEXT NOT NULL,
		amount         BIGINT NOT NULL,
		currency       CHAR(3) NOT NULL,
		handler        TEXT NOT NULL,
		reason         TEXT NOT NULL,
		occurred_at    TIMESTAMPTZ NOT NULL,
		failed_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dead_letters_failed_at ON dead_letters (failed_at)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            UUID PRIMARY KEY,
		action        TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT,
		details       TEXT,
		ip_address    TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the archive tables inside one transaction.
func EnsureSchema(ctx context.Context, pool Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
