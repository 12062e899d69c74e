package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS dead_letters").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_dead_letters_failed_at").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS dead_letters").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = EnsureSchema(context.Background(), mock)
	assert.ErrorContains(t, err, "apply schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = EnsureSchema(context.Background(), mock)
	assert.ErrorContains(t, err, "begin schema tx")
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectPing()
	assert.NoError(t, hc.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("server closed the connection"))
	assert.Error(t, hc.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
