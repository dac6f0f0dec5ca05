// Package sqlite implements the leave engine repositories on SQLite for single-node
// deployments and integration tests. Dates are stored as YYYY-MM-DD text and timestamps
// as RFC 3339 text, so range comparisons work on the raw columns.
//
// Every transaction is opened with BEGIN IMMEDIATE (see database.NewSQLiteDB), which
// serializes writers on the database lock; the employee locker is therefore a no-op.
// Overlaps are rejected by triggers mirroring the PostgreSQL exclusion constraint.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const overlapTriggerMessage = "leave_overlap"

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store owns the SQLite handle shared by all repositories of this package.
type Store struct {
	db *sql.DB
}

// New opens path and migrates the schema. Use ":memory:" for a throwaway database.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := database.NewSQLiteDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewFromDB(ctx, db)
}

// NewFromDB wraps an open handle and migrates the schema.
func NewFromDB(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

type employeeLockerImpl struct{}

// NewEmployeeLocker returns the SQLite leave.EmployeeLocker. Writers are already
// serialized by BEGIN IMMEDIATE, so it only checks that a transaction is open.
func NewEmployeeLocker() leave.EmployeeLocker {
	return employeeLockerImpl{}
}

var errLockOutsideTransaction = errors.New("employee lock requires an open transaction")

func (employeeLockerImpl) LockEmployees(ctx context.Context, employeeIDs ...string) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); !ok {
		return errLockOutsideTransaction
	}
	return nil
}

func (employeeLockerImpl) LockLeaveYear(ctx context.Context, exclusive bool) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); !ok {
		return errLockOutsideTransaction
	}
	return nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDay(s string) time.Time {
	t, _ := datemath.ParseDate(s)
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// sqliteError classifies constraint failures.
func sqliteError(err error) (sqlite3.ErrNoExtended, string, bool) {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode, sqErr.Error(), true
	}
	return 0, "", false
}

func isUniqueViolation(err error, column string) bool {
	code, msg, ok := sqliteError(err)
	return ok && code == sqlite3.ErrConstraintUnique && (column == "" || strings.Contains(msg, column))
}

func isForeignKeyViolation(err error) bool {
	code, _, ok := sqliteError(err)
	return ok && code == sqlite3.ErrConstraintForeignKey
}

func isOverlapViolation(err error) bool {
	_, msg, ok := sqliteError(err)
	return ok && strings.Contains(msg, overlapTriggerMessage)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		employee_code TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT UNIQUE,
		days_taken INTEGER NOT NULL DEFAULT 0,
		days_remaining INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_active ON employees(is_active);

	CREATE TABLE IF NOT EXISTS leave_years (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL UNIQUE,
		end_date TEXT NOT NULL,
		is_current INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		CHECK (start_date <= end_date)
	);

	-- At most one current leave year
	CREATE UNIQUE INDEX IF NOT EXISTS uq_leave_years_current
		ON leave_years(is_current) WHERE is_current = 1;

	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		leave_type TEXT NOT NULL CHECK (leave_type IN ('Annual', 'Sick', 'Unpaid', 'Working')),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		duration INTEGER NOT NULL CHECK (duration >= 0),
		leave_year_id TEXT NOT NULL REFERENCES leave_years(id),
		notes TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (start_date <= end_date)
	);

	CREATE INDEX IF NOT EXISTS idx_leave_records_employee_year
		ON leave_records(employee_id, leave_year_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_leave_records_year
		ON leave_records(leave_year_id);

	CREATE TRIGGER IF NOT EXISTS leave_records_no_overlap_insert
	BEFORE INSERT ON leave_records
	WHEN EXISTS (
		SELECT 1 FROM leave_records
		WHERE employee_id = NEW.employee_id
			AND leave_year_id = NEW.leave_year_id
			AND start_date <= NEW.end_date
			AND NEW.start_date <= end_date
	)
	BEGIN
		SELECT RAISE(ABORT, '` + overlapTriggerMessage + `');
	END;

	CREATE TRIGGER IF NOT EXISTS leave_records_no_overlap_update
	BEFORE UPDATE OF employee_id, start_date, end_date ON leave_records
	WHEN EXISTS (
		SELECT 1 FROM leave_records
		WHERE id <> NEW.id
			AND employee_id = NEW.employee_id
			AND leave_year_id = NEW.leave_year_id
			AND start_date <= NEW.end_date
			AND NEW.start_date <= end_date
	)
	BEGIN
		SELECT RAISE(ABORT, '` + overlapTriggerMessage + `');
	END;

	CREATE TABLE IF NOT EXISTS archived_leave_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		duration INTEGER NOT NULL,
		leave_year_id TEXT NOT NULL REFERENCES leave_years(id),
		notes TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archived_leave_records_year
		ON archived_leave_records(leave_year_id);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		default_leave_allocation INTEGER NOT NULL,
		sick_leave_allocation INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
