package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-transfer-saga/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeadLetter(t *testing.T) domain.DeadLetter {
	t.Helper()
	transfer, err := domain.NewMoneyTransfer(uuid.New(), "REV1", "REV2", domain.MustMoney(domain.PLN, 100))
	require.NoError(t, err)

	dl := domain.NewDeadLetter(domain.NewFundsBlocked(transfer), "funds-blocked", domain.ErrRetryExhausted)
	dl.Event.OccurredAt = dl.Event.OccurredAt.Truncate(time.Microsecond)
	dl.FailedAt = dl.FailedAt.Truncate(time.Microsecond)
	return dl
}

func deadLetterColumns() []string {
	return []string{"id", "event_id", "event_kind", "transfer_id", "source_account", "target_account",
		"amount", "currency", "handler", "reason", "occurred_at", "failed_at"}
}

func TestDeadLetterRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeadLetterRepo(mock)
	dl := newTestDeadLetter(t)
	tr := dl.Event.Transfer

	mock.ExpectExec("INSERT INTO dead_letters").
		WithArgs(dl.ID, dl.Event.ID, "FUNDS_BLOCKED", tr.ID, "REV1", "REV2",
			int64(100), "PLN", "funds-blocked", dl.Reason, dl.Event.OccurredAt, dl.FailedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Append(context.Background(), dl)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadLetterRepo_Append_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeadLetterRepo(mock)

	mock.ExpectExec("INSERT INTO dead_letters").
		WillReturnError(errors.New("connection refused"))

	err = repo.Append(context.Background(), newTestDeadLetter(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert dead letter")
}

func TestDeadLetterRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeadLetterRepo(mock)
	dl := newTestDeadLetter(t)
	tr := dl.Event.Transfer

	mock.ExpectQuery("SELECT .+ FROM dead_letters ORDER BY failed_at").
		WillReturnRows(pgxmock.NewRows(deadLetterColumns()).AddRow(
			dl.ID, dl.Event.ID, "FUNDS_BLOCKED", tr.ID, "REV1", "REV2",
			int64(100), "PLN", dl.Handler, dl.Reason, dl.Event.OccurredAt, dl.FailedAt,
		))

	letters, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, letters, 1)

	got := letters[0]
	assert.Equal(t, dl.ID, got.ID)
	assert.Equal(t, domain.EventFundsBlocked, got.Event.Kind)
	assert.Equal(t, tr, got.Event.Transfer)
	assert.Equal(t, dl.Reason, got.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadLetterRepo_List_BadCurrency(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeadLetterRepo(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM dead_letters").
		WillReturnRows(pgxmock.NewRows(deadLetterColumns()).AddRow(
			uuid.New(), uuid.New(), "FUNDS_SETTLED", uuid.New(), "REV1", "REV2",
			int64(5), "zł", "funds-settled", "boom", now, now,
		))

	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestDeadLetterRepo_List_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeadLetterRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM dead_letters").
		WillReturnError(errors.New("relation does not exist"))

	_, err = repo.List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
