package leave

import (
	"context"
)

// LeaveRecordRepository - interface for leave_records table
type LeaveRecordRepository interface {
	GetByID(ctx context.Context, id string) (LeaveRecord, error)
	// GetByEmployee returns the employee's records, limited to one leave year when leaveYearID is set.
	GetByEmployee(ctx context.Context, employeeID string, leaveYearID *string) ([]LeaveRecord, error)
	GetByLeaveYear(ctx context.Context, leaveYearID string) ([]LeaveRecord, error)
	Create(ctx context.Context, record LeaveRecord) (LeaveRecord, error)
	Update(ctx context.Context, record LeaveRecord) (LeaveRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
	DeleteByLeaveYear(ctx context.Context, leaveYearID string) (int64, error)
}

// LeaveYearRepository - interface for leave_years table
type LeaveYearRepository interface {
	GetByID(ctx context.Context, id string) (LeaveYear, error)
	// GetCurrent returns ErrNoCurrentLeaveYear when no row is flagged current.
	GetCurrent(ctx context.Context) (LeaveYear, error)
	// GetLatestPrevious returns the non-current year with the latest end date.
	GetLatestPrevious(ctx context.Context) (LeaveYear, error)
	List(ctx context.Context) ([]LeaveYear, error)
	Create(ctx context.Context, year LeaveYear) (LeaveYear, error)
	ClearCurrent(ctx context.Context) error
}

// ArchiveRepository - interface for archived_leave_records table
type ArchiveRepository interface {
	// CreateBatch copies records into the archive, skipping ids already archived.
	CreateBatch(ctx context.Context, records []ArchivedLeaveRecord) (int64, error)
	CountByLeaveYear(ctx context.Context, leaveYearID string) (int64, error)
}

// EmployeeLocker takes transaction-scoped locks on leave data.
// It must be called with a ctx carrying an open transaction.
type EmployeeLocker interface {
	LockEmployees(ctx context.Context, employeeIDs ...string) error
	// LockLeaveYear is taken shared by leave writers and exclusively by rollover,
	// before any employee lock.
	LockLeaveYear(ctx context.Context, exclusive bool) error
}
