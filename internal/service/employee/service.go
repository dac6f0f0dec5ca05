package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/lock"
)

type EmployeeServiceImpl struct {
	tx              database.Transactor
	locker          leave.EmployeeLocker
	employeeRepo    employee.EmployeeRepository
	leaveRecordRepo leave.LeaveRecordRepository
	settingsService settings.SettingsService
	locks           *lock.KeyedMutex
}

func NewEmployeeService(
	tx database.Transactor,
	locker leave.EmployeeLocker,
	employeeRepo employee.EmployeeRepository,
	leaveRecordRepo leave.LeaveRecordRepository,
	settingsService settings.SettingsService,
	locks *lock.KeyedMutex,
) *EmployeeServiceImpl {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &EmployeeServiceImpl{
		tx:              tx,
		locker:          locker,
		employeeRepo:    employeeRepo,
		leaveRecordRepo: leaveRecordRepo,
		settingsService: settingsService,
		locks:           locks,
	}
}

// CreateEmployee implements employee.EmployeeService. New employees start with the full default allocation.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	cfg, err := s.settingsService.GetSettings(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("load leave settings: %w", err)
	}

	created, err := s.employeeRepo.Create(ctx, employee.Employee{
		EmployeeCode:  req.EmployeeCode,
		FullName:      req.FullName,
		Email:         req.Email,
		DaysTaken:     0,
		DaysRemaining: cfg.DefaultLeaveAllocation,
		IsActive:      true,
	})
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeCodeExists) || errors.Is(err, employee.ErrEmailExists) {
			return employee.EmployeeResponse{}, err
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return employee.NewEmployeeResponse(created), nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee.NewEmployeeResponse(emp), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	filter.Normalize()

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, employee.NewEmployeeResponse(emp))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", filter.Offset()+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Employees:  responses,
	}, nil
}

// UpdateEmployee implements employee.EmployeeService. Balance columns are never set here.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	if req.FullName != nil {
		emp.FullName = *req.FullName
	}
	if req.Email != nil {
		emp.Email = req.Email
	}
	if req.IsActive != nil {
		emp.IsActive = *req.IsActive
	}
	emp.UpdatedAt = time.Now()

	if err := s.employeeRepo.Update(ctx, emp); err != nil {
		if errors.Is(err, employee.ErrEmailExists) || errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.EmployeeResponse{}, err
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to update employee: %w", err)
	}

	return employee.NewEmployeeResponse(emp), nil
}

// DeleteEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) DeleteEmployee(ctx context.Context, id string) error {
	return s.deleteWithLeaves(ctx, id)
}

// BulkDelete implements employee.EmployeeService. Each employee is removed in its own
// transaction; a failure is tallied and the batch moves on.
func (s *EmployeeServiceImpl) BulkDelete(ctx context.Context, req employee.BulkDeleteRequest, onProgress batch.ProgressFunc) (batch.Result, error) {
	if err := req.Validate(); err != nil {
		return batch.Result{}, err
	}

	result := batch.Run(ctx, req.EmployeeIDs,
		func(id string) string { return id },
		s.deleteWithLeaves,
		onProgress,
	)

	slog.Info("Bulk employee delete finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
	)

	return result, nil
}

// deleteWithLeaves removes the employee's leave records first, then the employee.
func (s *EmployeeServiceImpl) deleteWithLeaves(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.LockEmployees(ctx, id); err != nil {
			return err
		}

		if _, err := s.employeeRepo.GetByID(ctx, id); err != nil {
			return err
		}

		removed, err := s.leaveRecordRepo.DeleteByEmployee(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete leave records: %w", err)
		}

		if err := s.employeeRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}

		slog.Debug("Employee deleted", "employee_id", id, "leave_records_removed", removed)
		return nil
	})
}
