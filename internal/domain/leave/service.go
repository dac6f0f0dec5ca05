package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
)

type LeaveService interface {
	CreateLeave(ctx context.Context, req CreateLeaveRequest) (LeaveResult, error)
	UpdateLeave(ctx context.Context, req UpdateLeaveRequest) (LeaveResult, error)
	DeleteLeave(ctx context.Context, id string) (DeleteLeaveResult, error)
	GetLeave(ctx context.Context, id string) (LeaveRecordResponse, error)
	// ListEmployeeLeaves defaults to the current leave year when leaveYearID is nil.
	ListEmployeeLeaves(ctx context.Context, employeeID string, leaveYearID *string) ([]LeaveRecordResponse, error)
	GetBalance(ctx context.Context, employeeID string) (BalanceResponse, error)
}

type YearService interface {
	Rollover(ctx context.Context, req RolloverRequest) (RolloverResult, error)
	ListYears(ctx context.Context) ([]LeaveYearResponse, error)
	GetCurrentYear(ctx context.Context) (LeaveYearResponse, error)
}

type BalanceService interface {
	ResetBalances(ctx context.Context, req ResetBalancesRequest) (ResetResult, error)
	Reconcile(ctx context.Context, employeeID string) (Balance, error)
	ReconcileAll(ctx context.Context, onProgress batch.ProgressFunc) (batch.Result, error)
}
