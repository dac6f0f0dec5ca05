package postgresql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

var errLockOutsideTransaction = errors.New("employee lock requires an open transaction")

const leaveYearLockKey = "leave_year"

type employeeLockerImpl struct{}

// NewEmployeeLocker returns a leave.EmployeeLocker backed by transaction-scoped advisory locks.
func NewEmployeeLocker() leave.EmployeeLocker {
	return &employeeLockerImpl{}
}

// LockEmployees takes pg_advisory_xact_lock per employee in sorted order. The locks are
// released when the surrounding transaction ends.
func (l *employeeLockerImpl) LockEmployees(ctx context.Context, employeeIDs ...string) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return errLockOutsideTransaction
	}

	ids := append([]string(nil), employeeIDs...)
	sort.Strings(ids)

	var q database.Querier = tx
	var prev string
	for i, id := range ids {
		if id == "" || (i > 0 && id == prev) {
			continue
		}
		prev = id
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
			return fmt.Errorf("lock employee %s: %w", id, err)
		}
	}
	return nil
}

// LockLeaveYear takes the year-wide advisory lock. Writers share it; rollover holds it alone.
func (l *employeeLockerImpl) LockLeaveYear(ctx context.Context, exclusive bool) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return errLockOutsideTransaction
	}

	query := `SELECT pg_advisory_xact_lock_shared(hashtext($1))`
	if exclusive {
		query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	}
	if _, err := tx.Exec(ctx, query, leaveYearLockKey); err != nil {
		return fmt.Errorf("lock leave year: %w", err)
	}
	return nil
}
