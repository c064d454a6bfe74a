package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE employees").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tr := NewTransactor(mock)
	err = tr.WithinTx(context.Background(), func(ctx context.Context) error {
		conn := Conn(ctx, mock)
		_, isTx := conn.(pgx.Tx)
		assert.True(t, isTx)
		_, err := conn.Exec(ctx, "UPDATE employees SET active_flag=false")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTransactor(mock).WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxNestedJoinsOuter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tr := NewTransactor(mock)
	calls := 0
	err = tr.WithinTx(context.Background(), func(ctx context.Context) error {
		return tr.WithinTx(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnWithoutTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	assert.Equal(t, DBTX(mock), Conn(context.Background(), mock))
}
