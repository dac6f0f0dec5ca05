package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

type archiveRepositoryImpl struct {
	store *Store
}

func NewArchiveRepository(store *Store) leave.ArchiveRepository {
	return &archiveRepositoryImpl{store: store}
}

// CreateBatch implements leave.ArchiveRepository.
func (r *archiveRepositoryImpl) CreateBatch(ctx context.Context, records []leave.ArchivedLeaveRecord) (int64, error) {
	q := r.store.querier(ctx)

	var inserted int64
	for _, a := range records {
		res, err := q.ExecContext(ctx, `
			INSERT INTO archived_leave_records (
				id, employee_id, leave_type, start_date, end_date, duration,
				leave_year_id, notes, created_by, created_at, updated_at, archived_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, a.EmployeeID, string(a.LeaveType),
			datemath.FormatDate(a.StartDate), datemath.FormatDate(a.EndDate), a.Duration,
			a.LeaveYearID, nullString(a.Notes), a.CreatedBy,
			formatTime(a.CreatedAt), formatTime(a.UpdatedAt), formatTime(a.ArchivedAt),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to archive leave record %s: %w", a.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}

// CountByLeaveYear implements leave.ArchiveRepository.
func (r *archiveRepositoryImpl) CountByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	var total int64
	err := r.store.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM archived_leave_records WHERE leave_year_id = ?`, leaveYearID,
	).Scan(&total)
	return total, err
}
