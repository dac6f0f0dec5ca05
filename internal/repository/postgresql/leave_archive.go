package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type archiveRepositoryImpl struct {
	db *database.DB
}

func NewArchiveRepository(db *database.DB) leave.ArchiveRepository {
	return &archiveRepositoryImpl{db: db}
}

// CreateBatch implements leave.ArchiveRepository. The inserts are sent as one pgx batch.
func (r *archiveRepositoryImpl) CreateBatch(ctx context.Context, records []leave.ArchivedLeaveRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO archived_leave_records (
			id, employee_id, leave_type, start_date, end_date, duration,
			leave_year_id, notes, created_by, created_at, updated_at, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	b := &pgx.Batch{}
	for _, a := range records {
		b.Queue(query,
			a.ID, a.EmployeeID, a.LeaveType, a.StartDate, a.EndDate, a.Duration,
			a.LeaveYearID, a.Notes, a.CreatedBy, a.CreatedAt, a.UpdatedAt, a.ArchivedAt,
		)
	}

	results := q.SendBatch(ctx, b)
	defer results.Close()

	var inserted int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to archive leave record: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// CountByLeaveYear implements leave.ArchiveRepository.
func (r *archiveRepositoryImpl) CountByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM archived_leave_records WHERE leave_year_id = $1`, leaveYearID).Scan(&total)
	return total, err
}
