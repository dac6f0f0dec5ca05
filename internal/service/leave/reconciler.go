package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
)

// EventPublisher delivers balance events to subscribed clients.
type EventPublisher interface {
	PublishToMany(topics []string, event sse.Event)
}

type noopPublisher struct{}

func (noopPublisher) PublishToMany([]string, sse.Event) {}

// Reconciler rewrites the cached balance of an employee from the full set of
// their current-year records. It never applies increments.
type Reconciler struct {
	tx        database.Transactor
	locker    leave.EmployeeLocker
	records   leave.LeaveRecordRepository
	employees employee.EmployeeRepository
	years     *yearResolver
	settings  settings.SettingsService
	publisher EventPublisher
}

// Reconcile recomputes and stores the employee's balance and publishes it.
func (r *Reconciler) Reconcile(ctx context.Context, employeeID string) (leave.Balance, error) {
	year, err := r.years.current(ctx)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("resolve current leave year: %w", err)
	}

	cfg, err := r.settings.GetSettings(ctx)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("load leave settings: %w", err)
	}

	var balance leave.Balance
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.locker.LockEmployees(ctx, employeeID); err != nil {
			return err
		}

		records, err := r.records.GetByEmployee(ctx, employeeID, &year.ID)
		if err != nil {
			return fmt.Errorf("load leave records: %w", err)
		}

		balance = ComputeBalance(records, cfg.DefaultLeaveAllocation)
		return r.employees.UpdateBalance(ctx, employeeID, balance.DaysTaken, balance.DaysRemaining)
	})
	if err != nil {
		return leave.Balance{}, fmt.Errorf("reconcile employee %s: %w", employeeID, err)
	}

	r.publisher.PublishToMany(
		[]string{sse.EmployeeTopic(employeeID), sse.AdminTopic},
		sse.Event{
			Event: sse.EventBalanceUpdated,
			Data: map[string]interface{}{
				"employee_id":    employeeID,
				"leave_year_id":  year.ID,
				"allocation":     balance.Allocation,
				"days_taken":     balance.DaysTaken,
				"days_remaining": balance.DaysRemaining,
			},
		},
	)

	return balance, nil
}

// reconcileAfterWrite runs after a committed mutation. A failure leaves the cache
// stale until the next reconciliation; the committed record is kept.
func (r *Reconciler) reconcileAfterWrite(ctx context.Context, employeeID string) (*leave.Balance, bool) {
	balance, err := r.Reconcile(ctx, employeeID)
	if err != nil {
		slog.Error("Balance reconciliation failed", "employee_id", employeeID, "error", err)
		return nil, true
	}
	return &balance, false
}
