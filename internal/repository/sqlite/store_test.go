package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewFromDB(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store, mock
}

func TestWithinTransaction_CommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)
	years := NewLeaveYearRepository(store)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leave_years SET is_current = 0").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return years.ClearCurrent(ctx)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	years := NewLeaveYearRepository(store)
	boom := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leave_years SET is_current = 0").WillReturnError(boom)
	mock.ExpectRollback()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return years.ClearCurrent(ctx)
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_NestedCallsShareTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return store.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := NewEmployeeLocker().LockLeaveYear(ctx, false); err != nil {
				return err
			}
			return NewEmployeeLocker().LockEmployees(ctx, "a", "b")
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollsBackOnPanic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithinTransaction(context.Background(), func(ctx context.Context) error {
			panic("unexpected")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeLocker_RequiresTransaction(t *testing.T) {
	err := NewEmployeeLocker().LockEmployees(context.Background(), "a")
	assert.Error(t, err)
	assert.Error(t, NewEmployeeLocker().LockLeaveYear(context.Background(), true))
}

func TestMapLeaveRecordError_PassesUnknownErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, mapLeaveRecordError(boom))
	assert.NotErrorIs(t, mapLeaveRecordError(boom), leave.ErrOverlappingLeave)
}
