package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveYearRepositoryImpl struct {
	db *database.DB
}

func NewLeaveYearRepository(db *database.DB) leave.LeaveYearRepository {
	return &leaveYearRepositoryImpl{db: db}
}

func (r *leaveYearRepositoryImpl) getOne(ctx context.Context, notFound error, query string, args ...interface{}) (leave.LeaveYear, error) {
	q := GetQuerier(ctx, r.db)

	var y leave.LeaveYear
	err := q.QueryRow(ctx, query, args...).Scan(&y.ID, &y.StartDate, &y.EndDate, &y.IsCurrent, &y.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveYear{}, notFound
		}
		return leave.LeaveYear{}, err
	}
	return y, nil
}

// GetByID implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrLeaveYearNotFound, `
		SELECT id, start_date, end_date, is_current, created_at
		FROM leave_years
		WHERE id = $1
	`, id)
}

// GetCurrent implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetCurrent(ctx context.Context) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrNoCurrentLeaveYear, `
		SELECT id, start_date, end_date, is_current, created_at
		FROM leave_years
		WHERE is_current
	`)
}

// GetLatestPrevious implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) GetLatestPrevious(ctx context.Context) (leave.LeaveYear, error) {
	return r.getOne(ctx, leave.ErrLeaveYearNotFound, `
		SELECT id, start_date, end_date, is_current, created_at
		FROM leave_years
		WHERE NOT is_current
		ORDER BY end_date DESC
		LIMIT 1
	`)
}

// List implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) List(ctx context.Context) ([]leave.LeaveYear, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, start_date, end_date, is_current, created_at
		FROM leave_years
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make([]leave.LeaveYear, 0)
	for rows.Next() {
		var y leave.LeaveYear
		if err := rows.Scan(&y.ID, &y.StartDate, &y.EndDate, &y.IsCurrent, &y.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leave year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Create implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) Create(ctx context.Context, year leave.LeaveYear) (leave.LeaveYear, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO leave_years (start_date, end_date, is_current, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, year.StartDate, year.EndDate, year.IsCurrent).Scan(&year.ID, &year.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return leave.LeaveYear{}, leave.ErrLeaveYearExists
		}
		return leave.LeaveYear{}, err
	}
	return year, nil
}

// ClearCurrent implements leave.LeaveYearRepository.
func (r *leaveYearRepositoryImpl) ClearCurrent(ctx context.Context) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE leave_years SET is_current = FALSE WHERE is_current`)
	return err
}
