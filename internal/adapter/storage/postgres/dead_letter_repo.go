package postgres

import (
	"context"
	"fmt"

	"bank-transfer-saga/internal/core/domain"

	"github.com/google/uuid"
)

// DeadLetterRepo implements ports.DeadLetterRepository on PostgreSQL.
type DeadLetterRepo struct {
	pool Pool
}

// NewDeadLetterRepo creates a new DeadLetterRepo.
func NewDeadLetterRepo(pool Pool) *DeadLetterRepo {
	return &DeadLetterRepo{pool: pool}
}

// Append archives a dead letter. The transfer is flattened into columns.
func (r *DeadLetterRepo) Append(ctx context.Context, dl domain.DeadLetter) error {
	query := `INSERT INTO dead_letters (id, event_id, event_kind, transfer_id, source_account, target_account,
		amount, currency, handler, reason, occurred_at, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	t := dl.Event.Transfer
	_, err := r.pool.Exec(ctx, query,
		dl.ID, dl.Event.ID, string(dl.Event.Kind), t.ID,
		t.Source.String(), t.Target.String(),
		t.Amount.Amount(), string(t.Amount.Currency()),
		dl.Handler, dl.Reason, dl.Event.OccurredAt, dl.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// List returns every archived dead letter, oldest first.
func (r *DeadLetterRepo) List(ctx context.Context) ([]domain.DeadLetter, error) {
	query := `SELECT id, event_id, event_kind, transfer_id, source_account, target_account,
		amount, currency, handler, reason, occurred_at, failed_at
		FROM dead_letters ORDER BY failed_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query dead letters: %w", err)
	}
	defer rows.Close()

	var out []domain.DeadLetter
	for rows.Next() {
		var (
			dl             domain.DeadLetter
			transferID     uuid.UUID
			kind           string
			source, target string
			amount         int64
			currency       string
		)
		if err := rows.Scan(
			&dl.ID, &dl.Event.ID, &kind, &transferID, &source, &target,
			&amount, &currency, &dl.Handler, &dl.Reason, &dl.Event.OccurredAt, &dl.FailedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}

		money, err := domain.NewMoney(domain.Currency(currency), amount)
		if err != nil {
			return nil, fmt.Errorf("dead letter %s: %w", dl.ID, err)
		}
		dl.Event.Kind = domain.EventKind(kind)
		dl.Event.Transfer = domain.MoneyTransfer{
			ID:     transferID,
			Source: domain.AccountID(source),
			Target: domain.AccountID(target),
			Amount: money,
		}
		out = append(out, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letters: %w", err)
	}
	return out, nil
}
