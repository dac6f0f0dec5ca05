package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
)

type YearServiceImpl struct {
	tx         database.Transactor
	locker     leave.EmployeeLocker
	records    leave.LeaveRecordRepository
	years      leave.LeaveYearRepository
	archive    leave.ArchiveRepository
	resolver   *yearResolver
	startMonth time.Month
	now        func() time.Time
}

func NewYearService(deps Dependencies) *YearServiceImpl {
	deps = deps.withDefaults()
	return &YearServiceImpl{
		tx:         deps.Transactor,
		locker:     deps.Locker,
		records:    deps.Records,
		years:      deps.Years,
		archive:    deps.Archive,
		resolver:   newYearResolver(deps.Years),
		startMonth: deps.YearStartMonth,
		now:        deps.Now,
	}
}

// Rollover opens the leave year starting this calendar year and archives the records
// of the most recent closed year. Everything runs in one transaction, and running it
// again changes nothing.
func (s *YearServiceImpl) Rollover(ctx context.Context, req leave.RolloverRequest) (leave.RolloverResult, error) {
	if !req.Confirm {
		return leave.RolloverResult{}, leave.ErrConfirmationRequired
	}

	now := s.now().UTC()
	newStart, newEnd := leaveYearFor(now, s.startMonth)

	var result leave.RolloverResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.LockLeaveYear(ctx, true); err != nil {
			return fmt.Errorf("lock leave year: %w", err)
		}

		current, err := s.years.GetCurrent(ctx)
		hasCurrent := true
		if errors.Is(err, leave.ErrNoCurrentLeaveYear) {
			hasCurrent = false
		} else if err != nil {
			return fmt.Errorf("get current leave year: %w", err)
		}

		if hasCurrent && current.StartDate.Equal(newStart) {
			result.CurrentYear = leave.NewLeaveYearResponse(current)
		} else {
			if hasCurrent {
				if err := s.years.ClearCurrent(ctx); err != nil {
					return fmt.Errorf("demote current leave year: %w", err)
				}
			}
			created, err := s.years.Create(ctx, leave.LeaveYear{
				StartDate: newStart,
				EndDate:   newEnd,
				IsCurrent: true,
			})
			if err != nil {
				return fmt.Errorf("create leave year: %w", err)
			}
			result.CurrentYear = leave.NewLeaveYearResponse(created)
			result.YearCreated = true
		}

		previous, err := s.years.GetLatestPrevious(ctx)
		if errors.Is(err, leave.ErrLeaveYearNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get previous leave year: %w", err)
		}
		prev := leave.NewLeaveYearResponse(previous)
		result.PreviousYear = &prev

		records, err := s.records.GetByLeaveYear(ctx, previous.ID)
		if err != nil {
			return fmt.Errorf("load leave records of previous year: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		archived := make([]leave.ArchivedLeaveRecord, 0, len(records))
		for _, r := range records {
			archived = append(archived, leave.ArchivedLeaveRecord{LeaveRecord: r, ArchivedAt: now})
		}
		if _, err := s.archive.CreateBatch(ctx, archived); err != nil {
			return fmt.Errorf("archive leave records: %w", err)
		}

		deleted, err := s.records.DeleteByLeaveYear(ctx, previous.ID)
		if err != nil {
			return fmt.Errorf("delete archived leave records: %w", err)
		}
		result.ArchivedCount = deleted
		return nil
	})
	if err != nil {
		return leave.RolloverResult{}, err
	}

	slog.Info("Leave year rollover completed",
		"current_year", result.CurrentYear.ID,
		"year_created", result.YearCreated,
		"archived_count", result.ArchivedCount,
	)

	return result, nil
}

// ListYears implements leave.YearService.
func (s *YearServiceImpl) ListYears(ctx context.Context) ([]leave.LeaveYearResponse, error) {
	years, err := s.years.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave years: %w", err)
	}

	responses := make([]leave.LeaveYearResponse, 0, len(years))
	for _, y := range years {
		responses = append(responses, leave.NewLeaveYearResponse(y))
	}
	return responses, nil
}

// GetCurrentYear implements leave.YearService.
func (s *YearServiceImpl) GetCurrentYear(ctx context.Context) (leave.LeaveYearResponse, error) {
	year, err := s.resolver.current(ctx)
	if err != nil {
		return leave.LeaveYearResponse{}, err
	}
	return leave.NewLeaveYearResponse(year), nil
}
