package http

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
)

type fakeLeaveService struct {
	createFn   func(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResult, error)
	updateFn   func(ctx context.Context, req leave.UpdateLeaveRequest) (leave.LeaveResult, error)
	deleteFn   func(ctx context.Context, id string) (leave.DeleteLeaveResult, error)
	getFn      func(ctx context.Context, id string) (leave.LeaveRecordResponse, error)
	listFn     func(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecordResponse, error)
	balanceFn  func(ctx context.Context, employeeID string) (leave.BalanceResponse, error)
	lastCreate leave.CreateLeaveRequest
}

func (f *fakeLeaveService) CreateLeave(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResult, error) {
	f.lastCreate = req
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return leave.LeaveResult{Record: leave.LeaveRecordResponse{ID: "rec-1", EmployeeID: req.EmployeeID}}, nil
}

func (f *fakeLeaveService) UpdateLeave(ctx context.Context, req leave.UpdateLeaveRequest) (leave.LeaveResult, error) {
	return f.updateFn(ctx, req)
}

func (f *fakeLeaveService) DeleteLeave(ctx context.Context, id string) (leave.DeleteLeaveResult, error) {
	return f.deleteFn(ctx, id)
}

func (f *fakeLeaveService) GetLeave(ctx context.Context, id string) (leave.LeaveRecordResponse, error) {
	return f.getFn(ctx, id)
}

func (f *fakeLeaveService) ListEmployeeLeaves(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecordResponse, error) {
	return f.listFn(ctx, employeeID, leaveYearID)
}

func (f *fakeLeaveService) GetBalance(ctx context.Context, employeeID string) (leave.BalanceResponse, error) {
	return f.balanceFn(ctx, employeeID)
}

type fakeYearService struct {
	rolloverFn func(ctx context.Context, req leave.RolloverRequest) (leave.RolloverResult, error)
}

func (f *fakeYearService) Rollover(ctx context.Context, req leave.RolloverRequest) (leave.RolloverResult, error) {
	return f.rolloverFn(ctx, req)
}

func (f *fakeYearService) ListYears(ctx context.Context) ([]leave.LeaveYearResponse, error) {
	return []leave.LeaveYearResponse{{ID: "year-1", StartDate: "2024-04-01", EndDate: "2025-03-31", IsCurrent: true}}, nil
}

func (f *fakeYearService) GetCurrentYear(ctx context.Context) (leave.LeaveYearResponse, error) {
	return leave.LeaveYearResponse{}, leave.ErrNoCurrentLeaveYear
}

type fakeBalanceService struct {
	reconcileAllFn func(ctx context.Context, onProgress batch.ProgressFunc) (batch.Result, error)
}

func (f *fakeBalanceService) ResetBalances(ctx context.Context, req leave.ResetBalancesRequest) (leave.ResetResult, error) {
	if !req.Confirm {
		return leave.ResetResult{}, leave.ErrConfirmationRequired
	}
	return leave.ResetResult{ResetCount: 2, Allocation: 28}, nil
}

func (f *fakeBalanceService) Reconcile(ctx context.Context, employeeID string) (leave.Balance, error) {
	return leave.Balance{}, nil
}

func (f *fakeBalanceService) ReconcileAll(ctx context.Context, onProgress batch.ProgressFunc) (batch.Result, error) {
	return f.reconcileAllFn(ctx, onProgress)
}

type fakeEmployeeService struct {
	employee.EmployeeService
	bulkDeleteFn func(ctx context.Context, req employee.BulkDeleteRequest, onProgress batch.ProgressFunc) (batch.Result, error)
}

func (f *fakeEmployeeService) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	filter.Normalize()
	return employee.ListEmployeeResponse{Page: filter.Page, Limit: filter.Limit, TotalCount: 1, TotalPages: 1, Showing: "1-1 of 1",
		Employees: []employee.EmployeeResponse{{ID: "emp-1", EmployeeCode: "EMP001", FullName: "J. Doe", DaysRemaining: 28, IsActive: true}},
	}, nil
}

func (f *fakeEmployeeService) BulkDelete(ctx context.Context, req employee.BulkDeleteRequest, onProgress batch.ProgressFunc) (batch.Result, error) {
	return f.bulkDeleteFn(ctx, req, onProgress)
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	byCode map[string]employee.Employee
	active []employee.Employee
}

func (f *fakeEmployeeRepo) GetByEmployeeCode(ctx context.Context, code string) (employee.Employee, error) {
	emp, ok := f.byCode[code]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) GetActive(ctx context.Context) ([]employee.Employee, error) {
	return f.active, nil
}

type fakeSettingsService struct {
	current settings.Settings
}

func (f *fakeSettingsService) GetSettings(ctx context.Context) (settings.Settings, error) {
	return f.current, nil
}

func (f *fakeSettingsService) UpdateSettings(ctx context.Context, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	if err := req.Validate(); err != nil {
		return settings.Settings{}, err
	}
	if req.DefaultLeaveAllocation != nil {
		f.current.DefaultLeaveAllocation = *req.DefaultLeaveAllocation
	}
	if req.SickLeaveAllocation != nil {
		f.current.SickLeaveAllocation = *req.SickLeaveAllocation
	}
	return f.current, nil
}
