package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
)

type LeaveJobs struct {
	balanceService leave.BalanceService
	interval       time.Duration
}

func NewLeaveJobs(balanceService leave.BalanceService, interval time.Duration) *LeaveJobs {
	return &LeaveJobs{
		balanceService: balanceService,
		interval:       interval,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_leave_balances", j.interval, j.ReconcileBalances)
}

// ReconcileBalances recomputes the cached balance of every active employee, healing
// drift left behind by reconciliations that failed after a committed write.
func (j *LeaveJobs) ReconcileBalances(ctx context.Context) error {
	slog.Info("Cron: Starting leave balance reconciliation")

	result, err := j.balanceService.ReconcileAll(ctx, nil)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		for _, f := range result.Failures {
			slog.Warn("Cron: balance reconciliation failed", "employee_id", f.Key, "error", f.Error)
		}
		return fmt.Errorf("%d of %d balances failed to reconcile", result.Failed, result.Total)
	}
	return nil
}
