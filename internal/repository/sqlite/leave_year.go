package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

const leaveYearSelect = `SELECT id, start_date, end_date, is_current, created_at FROM leave_years`

type leaveYearRepositoryImpl struct {
	store *Store
}

func NewLeaveYearRepository(store *Store) leave.LeaveYearRepository {
	return &leaveYearRepositoryImpl{store: store}
}

func scanLeaveYear(row rowScanner) (leave.LeaveYear, error) {
	var (
		y                     leave.LeaveYear
		start, end, createdAt string
	)
	if err := row.Scan(&y.ID, &start, &end, &y.IsCurrent, &createdAt); err != nil {
		return leave.LeaveYear{}, err
	}
	y.StartDate = parseDay(start)
	y.EndDate = parseDay(end)
	y.CreatedAt = parseTime(createdAt)
	return y, nil
}

func (r *leaveYearRepositoryImpl) getOne(ctx context.Context, notFound error, query string, args ...interface{}) (leave.LeaveYear, error) {
	y, err := scanLeaveYear(r.store.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveYear{}, notFound
		}
		return leave.LeaveYear{}, err
	}
	return y, nil
}

// GetByID implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrLeaveYearNotFound, leaveYearSelect+` WHERE id = ?`, id)
}

// GetCurrent implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetCurrent(ctx context.Context) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrNoCurrentLeaveYear, leaveYearSelect+` WHERE is_current = 1`)
}

// GetLatestPrevious implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetLatestPrevious(ctx context.Context) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrLeaveYearNotFound, leaveYearSelect+`
		WHERE is_current = 0
		ORDER BY end_date DESC
		LIMIT 1`)
}

// List implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) List(ctx context.Context) ([]leave.LeaveYear, error) {
	rows, err := r.store.querier(ctx).QueryContext(ctx, leaveYearSelect+` ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make([]leave.LeaveYear, 0)
	for rows.Next() {
		y, err := scanLeaveYear(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Create implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) Create(ctx context.Context, year leave.LeaveYear) (leave.LeaveYear, error) {
	year.ID = newID()
	year.CreatedAt = time.Now().UTC()

	_, err := r.store.querier(ctx).ExecContext(ctx, `
		INSERT INTO leave_years (id, start_date, end_date, is_current, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		year.ID, datemath.FormatDate(year.StartDate), datemath.FormatDate(year.EndDate),
		year.IsCurrent, formatTime(year.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "leave_years.start_date") {
			return leave.LeaveYear{}, leave.ErrLeaveYearExists
		}
		return leave.LeaveYear{}, err
	}
	return year, nil
}

// ClearCurrent implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) ClearCurrent(ctx context.Context) error {
	_, err := r.store.querier(ctx).ExecContext(ctx, `UPDATE leave_years SET is_current = 0 WHERE is_current = 1`)
	return err
}
