package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

const leaveRecordSelect = `
	SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.duration,
		lr.leave_year_id, lr.notes, lr.created_by, lr.created_at, lr.updated_at, e.full_name
	FROM leave_records lr
	LEFT JOIN employees e ON e.id = lr.employee_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type leaveRecordRepositoryImpl struct {
	store *Store
}

func NewLeaveRecordRepository(store *Store) leave.LeaveRecordRepository {
	return &leaveRecordRepositoryImpl{store: store}
}

func scanLeaveRecord(row rowScanner) (leave.LeaveRecord, error) {
	var (
		lr                   leave.LeaveRecord
		leaveType            string
		start, end           string
		createdAt, updatedAt string
		notes, employeeName  sql.NullString
	)
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &leaveType, &start, &end, &lr.Duration,
		&lr.LeaveYearID, &notes, &lr.CreatedBy, &createdAt, &updatedAt, &employeeName,
	)
	if err != nil {
		return leave.LeaveRecord{}, err
	}
	lr.LeaveType = leave.LeaveType(leaveType)
	lr.StartDate = parseDay(start)
	lr.EndDate = parseDay(end)
	lr.Notes = stringPtr(notes)
	lr.CreatedAt = parseTime(createdAt)
	lr.UpdatedAt = parseTime(updatedAt)
	lr.EmployeeName = stringPtr(employeeName)
	return lr, nil
}

func (r *leaveRecordRepositoryImpl) queryRecords(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveRecord, error) {
	rows, err := r.store.querier(ctx).QueryContext(ctx, query, args...)
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
	return records, rows.Err()
}

// GetByID implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	row := r.store.querier(ctx).QueryRowContext(ctx, leaveRecordSelect+` WHERE lr.id = ?`, id)
	lr, err := scanLeaveRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
		}
		return leave.LeaveRecord{}, err
	}
	return lr, nil
}

// GetByEmployee implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByEmployee(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecord, error) {
	if leaveYearID == nil {
		return r.queryRecords(ctx, leaveRecordSelect+`
			WHERE lr.employee_id = ?
			ORDER BY lr.start_date, lr.id`, employeeID)
	}
	return r.queryRecords(ctx, leaveRecordSelect+`
		WHERE lr.employee_id = ? AND lr.leave_year_id = ?
		ORDER BY lr.start_date, lr.id`, employeeID, *leaveYearID)
}

// GetByLeaveYear implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) GetByLeaveYear(ctx context.Context, leaveYearID string) ([]leave.LeaveRecord, error) {
	return r.queryRecords(ctx, leaveRecordSelect+`
		WHERE lr.leave_year_id = ?
		ORDER BY lr.employee_id, lr.start_date`, leaveYearID)
}

// Create implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) Create(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	now := time.Now().UTC()
	record.ID = newID()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.store.querier(ctx).ExecContext(ctx, `
		INSERT INTO leave_records (
			id, employee_id, leave_type, start_date, end_date, duration,
			leave_year_id, notes, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.EmployeeID, string(record.LeaveType),
		datemath.FormatDate(record.StartDate), datemath.FormatDate(record.EndDate), record.Duration,
		record.LeaveYearID, nullString(record.Notes), record.CreatedBy,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return leave.LeaveRecord{}, mapLeaveRecordError(err)
	}
	return record, nil
}

// Update implements leave.LeaveRecordRepository. leave_year_id is not writable.
func (r *leaveRecordRepositoryImpl) Update(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	q := r.store.querier(ctx)
	now := time.Now().UTC()

	res, err := q.ExecContext(ctx, `
		UPDATE leave_records
		SET employee_id = ?, leave_type = ?, start_date = ?, end_date = ?,
			duration = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		record.EmployeeID, string(record.LeaveType),
		datemath.FormatDate(record.StartDate), datemath.FormatDate(record.EndDate),
		record.Duration, nullString(record.Notes), formatTime(now), record.ID,
	)
	if err != nil {
		return leave.LeaveRecord{}, mapLeaveRecordError(err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
	}

	return r.GetByID(ctx, record.ID)
}

// Delete implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.store.querier(ctx).ExecContext(ctx, `DELETE FROM leave_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return leave.ErrLeaveRecordNotFound
	}
	return nil
}

// DeleteByEmployee implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	res, err := r.store.querier(ctx).ExecContext(ctx, `DELETE FROM leave_records WHERE employee_id = ?`, employeeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByLeaveYear implements leave.LeaveRecordRepository.
func (r *leaveRecordRepositoryImpl) DeleteByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	res, err := r.store.querier(ctx).ExecContext(ctx, `DELETE FROM leave_records WHERE leave_year_id = ?`, leaveYearID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mapLeaveRecordError(err error) error {
	switch {
	case isOverlapViolation(err):
		return leave.ErrOverlappingLeave
	case isForeignKeyViolation(err):
		return employee.ErrEmployeeNotFound
	}
	return err
}
