package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
)

// Dependencies wires the leave services to storage and to each other.
type Dependencies struct {
	Transactor database.Transactor
	Locker     leave.EmployeeLocker
	Records    leave.LeaveRecordRepository
	Years      leave.LeaveYearRepository
	Archive    leave.ArchiveRepository
	Employees  employee.EmployeeRepository
	Settings   settings.SettingsService
	Publisher  EventPublisher
	// Locks must be shared by every service that mutates an employee's leave.
	Locks          *lock.KeyedMutex
	YearStartMonth time.Month
	Now            func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Publisher == nil {
		d.Publisher = noopPublisher{}
	}
	if d.Locks == nil {
		d.Locks = lock.NewKeyedMutex()
	}
	if d.YearStartMonth == 0 {
		d.YearStartMonth = time.April
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func newReconciler(d Dependencies, years *yearResolver) *Reconciler {
	return &Reconciler{
		tx:        d.Transactor,
		locker:    d.Locker,
		records:   d.Records,
		employees: d.Employees,
		years:     years,
		settings:  d.Settings,
		publisher: d.Publisher,
	}
}

type LeaveServiceImpl struct {
	tx         database.Transactor
	locker     leave.EmployeeLocker
	records    leave.LeaveRecordRepository
	yearRepo   leave.LeaveYearRepository
	employees  employee.EmployeeRepository
	settings   settings.SettingsService
	years      *yearResolver
	locks      *lock.KeyedMutex
	reconciler *Reconciler
	publisher  EventPublisher
}

func NewLeaveService(deps Dependencies) *LeaveServiceImpl {
	deps = deps.withDefaults()
	years := newYearResolver(deps.Years)
	return &LeaveServiceImpl{
		tx:         deps.Transactor,
		locker:     deps.Locker,
		records:    deps.Records,
		yearRepo:   deps.Years,
		employees:  deps.Employees,
		settings:   deps.Settings,
		years:      years,
		locks:      deps.Locks,
		reconciler: newReconciler(deps, years),
		publisher:  deps.Publisher,
	}
}

// CreateLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) CreateLeave(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResult, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResult{}, err
	}

	start, err := datemath.ParseDate(req.StartDate)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := datemath.ParseDate(req.EndDate)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("parse end date: %w", err)
	}
	if start.After(end) {
		return leave.LeaveResult{}, &leave.RangeError{Start: start, End: end}
	}

	duration, err := policyOrDefault(req.DurationPolicy).Duration(start, end)
	if err != nil {
		return leave.LeaveResult{}, err
	}

	year, err := s.years.current(ctx)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("resolve current leave year: %w", err)
	}

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("load leave settings: %w", err)
	}

	candidate := leave.LeaveRecord{
		EmployeeID:  req.EmployeeID,
		LeaveType:   leave.LeaveType(req.LeaveType),
		StartDate:   start,
		EndDate:     end,
		Duration:    duration,
		LeaveYearID: year.ID,
		Notes:       req.Notes,
		CreatedBy:   req.CreatedBy,
	}

	unlock := s.locks.Lock(candidate.EmployeeID)
	defer unlock()

	var (
		created leave.LeaveRecord
		warning *leave.BalanceWarning
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockForWrite(ctx, candidate.EmployeeID); err != nil {
			return err
		}

		// A rollover may have committed since the lookup above.
		current, err := s.yearRepo.GetCurrent(ctx)
		if err != nil {
			return fmt.Errorf("resolve current leave year: %w", err)
		}
		candidate.LeaveYearID = current.ID

		if _, err := s.employees.GetByID(ctx, candidate.EmployeeID); err != nil {
			return err
		}

		existing, err := s.records.GetByEmployee(ctx, candidate.EmployeeID, &current.ID)
		if err != nil {
			return fmt.Errorf("load leave records: %w", err)
		}

		if conflicts := FindOverlaps(start, end, existing, ""); len(conflicts) > 0 {
			return &leave.OverlapError{Conflicts: conflicts}
		}

		warning = prospectiveWarning(candidate.EmployeeID, existing, candidate, cfg.DefaultLeaveAllocation)

		created, err = s.records.Create(ctx, candidate)
		if err != nil {
			return persistError("insert", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveResult{}, err
	}

	result := leave.LeaveResult{
		Record:  leave.NewLeaveRecordResponse(created),
		Warning: warning,
	}
	result.Balance, result.BalanceStale = s.reconciler.reconcileAfterWrite(ctx, created.EmployeeID)
	s.publishWarning(warning)

	return result, nil
}

// UpdateLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) UpdateLeave(ctx context.Context, req leave.UpdateLeaveRequest) (leave.LeaveResult, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResult{}, err
	}

	// Read once outside the transaction to learn which employees to lock.
	original, err := s.records.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveResult{}, err
	}

	targetEmployeeID := original.EmployeeID
	if req.EmployeeID != nil {
		targetEmployeeID = *req.EmployeeID
	}

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("load leave settings: %w", err)
	}

	unlock := s.locks.Lock(original.EmployeeID, targetEmployeeID)
	defer unlock()

	var (
		updated leave.LeaveRecord
		warning *leave.BalanceWarning
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockForWrite(ctx, original.EmployeeID, targetEmployeeID); err != nil {
			return err
		}

		current, err := s.records.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.EmployeeID != original.EmployeeID {
			return leave.ErrConcurrentUpdate
		}

		patched, err := applyPatch(current, req)
		if err != nil {
			return err
		}

		if patched.EmployeeID != current.EmployeeID {
			if _, err := s.employees.GetByID(ctx, patched.EmployeeID); err != nil {
				return err
			}
		}

		existing, err := s.records.GetByEmployee(ctx, patched.EmployeeID, &patched.LeaveYearID)
		if err != nil {
			return fmt.Errorf("load leave records: %w", err)
		}

		if conflicts := FindOverlaps(patched.StartDate, patched.EndDate, existing, patched.ID); len(conflicts) > 0 {
			return &leave.OverlapError{Conflicts: conflicts}
		}

		warning = prospectiveWarning(patched.EmployeeID, withoutRecord(existing, patched.ID), patched, cfg.DefaultLeaveAllocation)

		updated, err = s.records.Update(ctx, patched)
		if err != nil {
			return persistError("update", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveResult{}, err
	}

	result := leave.LeaveResult{
		Record:  leave.NewLeaveRecordResponse(updated),
		Warning: warning,
	}
	result.Balance, result.BalanceStale = s.reconciler.reconcileAfterWrite(ctx, updated.EmployeeID)
	if updated.EmployeeID != original.EmployeeID {
		if _, stale := s.reconciler.reconcileAfterWrite(ctx, original.EmployeeID); stale {
			result.BalanceStale = true
		}
	}
	s.publishWarning(warning)

	return result, nil
}

// DeleteLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) DeleteLeave(ctx context.Context, id string) (leave.DeleteLeaveResult, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return leave.DeleteLeaveResult{}, err
	}

	unlock := s.locks.Lock(record.EmployeeID)
	defer unlock()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockForWrite(ctx, record.EmployeeID); err != nil {
			return err
		}
		if err := s.records.Delete(ctx, id); err != nil {
			return persistError("delete", err)
		}
		return nil
	})
	if err != nil {
		return leave.DeleteLeaveResult{}, err
	}

	result := leave.DeleteLeaveResult{ID: id, EmployeeID: record.EmployeeID}
	result.Balance, result.BalanceStale = s.reconciler.reconcileAfterWrite(ctx, record.EmployeeID)
	return result, nil
}

// GetLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) GetLeave(ctx context.Context, id string) (leave.LeaveRecordResponse, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveRecordResponse{}, err
	}
	return leave.NewLeaveRecordResponse(record), nil
}

// ListEmployeeLeaves implements leave.LeaveService.
func (s *LeaveServiceImpl) ListEmployeeLeaves(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecordResponse, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	if leaveYearID == nil {
		year, err := s.years.current(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current leave year: %w", err)
		}
		leaveYearID = &year.ID
	}

	records, err := s.records.GetByEmployee(ctx, employeeID, leaveYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave records: %w", err)
	}
	return leave.NewLeaveRecordResponses(records), nil
}

// GetBalance implements leave.LeaveService. The balance is computed from the records,
// not read from the cached employee columns.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, employeeID string) (leave.BalanceResponse, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return leave.BalanceResponse{}, err
	}

	year, err := s.years.current(ctx)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("resolve current leave year: %w", err)
	}

	cfg, err := s.settings.GetSettings(ctx)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("load leave settings: %w", err)
	}

	records, err := s.records.GetByEmployee(ctx, employeeID, &year.ID)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("failed to load leave records: %w", err)
	}

	balance := ComputeBalance(records, cfg.DefaultLeaveAllocation)
	byType := SummarizeByType(records)

	return leave.BalanceResponse{
		EmployeeID:     employeeID,
		LeaveYear:      leave.NewLeaveYearResponse(year),
		Allocation:     balance.Allocation,
		DaysTaken:      balance.DaysTaken,
		DaysRemaining:  balance.DaysRemaining,
		Exceeded:       balance.Exceeded(),
		SickAllocation: cfg.SickLeaveAllocation,
		SickTaken:      byType[leave.LeaveTypeSick],
		ByType:         byType,
	}, nil
}

// lockForWrite takes the shared year lock, then the employee locks.
func (s *LeaveServiceImpl) lockForWrite(ctx context.Context, employeeIDs ...string) error {
	if err := s.locker.LockLeaveYear(ctx, false); err != nil {
		return &leave.PersistError{Op: "lock", Err: err}
	}
	if err := s.locker.LockEmployees(ctx, employeeIDs...); err != nil {
		return &leave.PersistError{Op: "lock", Err: err}
	}
	return nil
}

func (s *LeaveServiceImpl) publishWarning(warning *leave.BalanceWarning) {
	if warning == nil {
		return
	}
	s.publisher.PublishToMany(
		[]string{sse.EmployeeTopic(warning.EmployeeID), sse.AdminTopic},
		sse.Event{Event: sse.EventBalanceWarning, Data: warning},
	)
}

func policyOrDefault(p leave.DurationPolicy) leave.DurationPolicy {
	if p == "" {
		return leave.DurationPolicyBusinessDays
	}
	return p
}

// applyPatch returns record with the request's mutable fields applied. The duration is
// recounted only when the range or the policy changes. LeaveYearID is never changed.
func applyPatch(record leave.LeaveRecord, req leave.UpdateLeaveRequest) (leave.LeaveRecord, error) {
	if req.EmployeeID != nil {
		record.EmployeeID = *req.EmployeeID
	}
	if req.LeaveType != nil {
		record.LeaveType = leave.LeaveType(*req.LeaveType)
	}
	if req.StartDate != nil {
		start, err := datemath.ParseDate(*req.StartDate)
		if err != nil {
			return leave.LeaveRecord{}, fmt.Errorf("parse start date: %w", err)
		}
		record.StartDate = start
	}
	if req.EndDate != nil {
		end, err := datemath.ParseDate(*req.EndDate)
		if err != nil {
			return leave.LeaveRecord{}, fmt.Errorf("parse end date: %w", err)
		}
		record.EndDate = end
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if record.StartDate.After(record.EndDate) {
		return leave.LeaveRecord{}, &leave.RangeError{Start: record.StartDate, End: record.EndDate}
	}
	if err := leave.ValidateRangeLength(record.StartDate, record.EndDate); err != nil {
		return leave.LeaveRecord{}, err
	}

	if req.StartDate == nil && req.EndDate == nil && req.DurationPolicy == "" {
		return record, nil
	}

	duration, err := policyOrDefault(req.DurationPolicy).Duration(record.StartDate, record.EndDate)
	if err != nil {
		return leave.LeaveRecord{}, err
	}
	record.Duration = duration

	return record, nil
}

func withoutRecord(records []leave.LeaveRecord, id string) []leave.LeaveRecord {
	out := make([]leave.LeaveRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// persistError wraps storage failures. Domain errors raised by the repository
// (not found, exclusion constraint) pass through unchanged.
func persistError(op string, err error) error {
	if errors.Is(err, leave.ErrLeaveRecordNotFound) ||
		errors.Is(err, leave.ErrOverlappingLeave) ||
		errors.Is(err, employee.ErrEmployeeNotFound) {
		return err
	}
	return &leave.PersistError{Op: op, Err: err}
}
