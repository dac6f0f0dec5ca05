package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
)

type BalanceServiceImpl struct {
	employees  employee.EmployeeRepository
	settings   settings.SettingsService
	reconciler *Reconciler
	publisher  EventPublisher
}

func NewBalanceService(deps Dependencies) *BalanceServiceImpl {
	deps = deps.withDefaults()
	return &BalanceServiceImpl{
		employees:  deps.Employees,
		settings:   deps.Settings,
		reconciler: newReconciler(deps, newYearResolver(deps.Years)),
		publisher:  deps.Publisher,
	}
}

// ResetBalances sets days_taken = 0 and days_remaining = allocation for every active
// employee in a single statement. Inactive employees keep their values.
func (s *BalanceServiceImpl) ResetBalances(ctx context.Context, req leave.ResetBalancesRequest) (leave.ResetResult, error) {
	if !req.Confirm {
		return leave.ResetResult{}, leave.ErrConfirmationRequired
	}
	if err := req.Validate(); err != nil {
		return leave.ResetResult{}, err
	}

	allocation := 0
	if req.Allocation != nil {
		allocation = *req.Allocation
	} else {
		cfg, err := s.settings.GetSettings(ctx)
		if err != nil {
			return leave.ResetResult{}, fmt.Errorf("load leave settings: %w", err)
		}
		allocation = cfg.DefaultLeaveAllocation
	}

	count, err := s.employees.ResetActiveBalances(ctx, allocation)
	if err != nil {
		return leave.ResetResult{}, fmt.Errorf("failed to reset balances: %w", err)
	}

	slog.Info("Employee balances reset", "reset_count", count, "allocation", allocation)
	s.publisher.PublishToMany([]string{sse.AdminTopic}, sse.Event{
		Event: sse.EventBalanceUpdated,
		Data: map[string]interface{}{
			"reset_count": count,
			"allocation":  allocation,
		},
	})

	return leave.ResetResult{ResetCount: count, Allocation: allocation}, nil
}

// Reconcile implements leave.BalanceService.
func (s *BalanceServiceImpl) Reconcile(ctx context.Context, employeeID string) (leave.Balance, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return leave.Balance{}, err
	}
	return s.reconciler.Reconcile(ctx, employeeID)
}

// ReconcileAll recomputes every active employee one at a time, continuing past failures.
func (s *BalanceServiceImpl) ReconcileAll(ctx context.Context, onProgress batch.ProgressFunc) (batch.Result, error) {
	start := time.Now()

	employees, err := s.employees.GetActive(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("failed to get active employees: %w", err)
	}

	result := batch.Run(ctx, employees,
		func(e employee.Employee) string { return e.ID },
		func(ctx context.Context, e employee.Employee) error {
			_, err := s.reconciler.Reconcile(ctx, e.ID)
			return err
		},
		onProgress,
	)

	slog.Info("Balance reconciliation finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"duration", time.Since(start),
	)

	return result, nil
}
