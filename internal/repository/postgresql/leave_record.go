package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const codeForeignKeyViolation = "23503"

const leaveRecordColumns = `
	lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.duration,
	lr.leave_year_id, lr.notes, lr.created_by, lr.created_at, lr.updated_at, e.full_name`

type leaveRecordRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRecordRepository(db *database.DB) leave.LeaveRecordRepository {
	return &leaveRecordRepositoryImpl{db: db}
}

func scanLeaveRecord(row pgx.Row) (leave.LeaveRecord, error) {
	var lr leave.LeaveRecord
	err := row.Scan(
		&lr.ID,
		&lr.EmployeeID,
		&lr.LeaveType,
		&lr.StartDate,
		&lr.EndDate,
		&lr.Duration,
		&lr.LeaveYearID,
		&lr.Notes,
		&lr.CreatedBy,
		&lr.CreatedAt,
		&lr.UpdatedAt,
		&lr.EmployeeName,
	)
	return lr, err
}

func (r *leaveRecordRepositoryImpl) queryRecords(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]leave.LeaveRecord, 0)
	for rows.Next() {
		lr, err := scanLeaveRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave record: %w", err)
		}
		records = append(records, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByID implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRecordColumns + `
		FROM leave_records lr
		LEFT JOIN employees e ON e.id = lr.employee_id
		WHERE lr.id = $1
	`
	lr, err := scanLeaveRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
		}
		return leave.LeaveRecord{}, fmt.Errorf("failed to get leave record %s: %w", id, err)
	}
	return lr, nil
}

// GetByEmployee implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByEmployee(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecord, error) {
	query := `SELECT ` + leaveRecordColumns + `
		FROM leave_records lr
		LEFT JOIN employees e ON e.id = lr.employee_id
		WHERE lr.employee_id = $1 AND ($2::uuid IS NULL OR lr.leave_year_id = $2::uuid)
		ORDER BY lr.start_date, lr.id
	`
	return r.queryRecords(ctx, query, employeeID, leaveYearID)
}

// GetByLeaveYear implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByLeaveYear(ctx context.Context, leaveYearID string) ([]leave.LeaveRecord, error) {
	query := `SELECT ` + leaveRecordColumns + `
		FROM leave_records lr
		LEFT JOIN employees e ON e.id = lr.employee_id
		WHERE lr.leave_year_id = $1
		ORDER BY lr.employee_id, lr.start_date
	`
	return r.queryRecords(ctx, query, leaveYearID)
}

// Create implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) Create(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_records (
			employee_id, leave_type, start_date, end_date, duration,
			leave_year_id, notes, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.LeaveType, record.StartDate, record.EndDate, record.Duration,
		record.LeaveYearID, record.Notes, record.CreatedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return leave.LeaveRecord{}, mapLeaveRecordError(err)
	}
	return record, nil
}

// Update implements leave.LeaveRecordRepository. leave_year_id is not writable.
func (r *leaveRecordRepositoryImpl) Update(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_records
		SET employee_id = $1, leave_type = $2, start_date = $3, end_date = $4,
			duration = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING leave_year_id, created_by, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.LeaveType, record.StartDate, record.EndDate,
		record.Duration, record.Notes, record.ID,
	).Scan(&record.LeaveYearID, &record.CreatedBy, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
		}
		return leave.LeaveRecord{}, mapLeaveRecordError(err)
	}
	return record, nil
}

// Delete implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM leave_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrLeaveRecordNotFound
	}
	return nil
}

// DeleteByEmployee implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM leave_records WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, err
	}
	return commandTag.RowsAffected(), nil
}

// DeleteByLeaveYear implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) DeleteByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM leave_records WHERE leave_year_id = $1`, leaveYearID)
	if err != nil {
		return 0, err
	}
	return commandTag.RowsAffected(), nil
}

func mapLeaveRecordError(err error) error {
	switch pgErrorCode(err) {
	case codeExclusionViolation:
		return leave.ErrOverlappingLeave
	case codeForeignKeyViolation:
		if constraintName(err) == "leave_records_leave_year_id_fkey" {
			return leave.ErrLeaveYearNotFound
		}
		return employee.ErrEmployeeNotFound
	}
	return err
}
