package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
)

// Import reads leave rows and creates each one through the leave lifecycle. Rows that fail
// (unknown employee, overlap, bad dates) are reported in the tally and the import continues.
func (s *Service) Import(ctx context.Context, r io.Reader, format Format, createdBy string, onProgress batch.ProgressFunc) (ImportResult, error) {
	rows, err := ReadRows(r, format)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{
		Created:  make([]string, 0, len(rows)),
		Warnings: make([]leave.BalanceWarning, 0),
	}

	result.Result = batch.Run(ctx, rows,
		func(row Row) string { return fmt.Sprintf("line %d", row.Line) },
		func(ctx context.Context, row Row) error {
			created, err := s.importRow(ctx, row, createdBy)
			if err != nil {
				return err
			}
			result.Created = append(result.Created, created.Record.ID)
			if created.Warning != nil {
				result.Warnings = append(result.Warnings, *created.Warning)
			}
			return nil
		},
		onProgress,
	)

	slog.Info("Leave import finished",
		"format", format,
		"rows", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"warnings", len(result.Warnings),
	)

	return result, nil
}

func (s *Service) importRow(ctx context.Context, row Row, createdBy string) (leave.LeaveResult, error) {
	if row.EmployeeCode == "" {
		return leave.LeaveResult{}, errEmployeeCodeRequired
	}

	emp, err := s.employeeRepo.GetByEmployeeCode(ctx, row.EmployeeCode)
	if err != nil {
		return leave.LeaveResult{}, fmt.Errorf("employee %s: %w", row.EmployeeCode, err)
	}

	req := leave.CreateLeaveRequest{
		EmployeeID:     emp.ID,
		LeaveType:      row.LeaveType,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		DurationPolicy: leave.DurationPolicy(row.DurationPolicy),
		CreatedBy:      createdBy,
	}
	if req.DurationPolicy == "" {
		req.DurationPolicy = leave.DurationPolicyBusinessDays
	}
	if row.Notes != "" {
		notes := row.Notes
		req.Notes = &notes
	}

	return s.leaveService.CreateLeave(ctx, req)
}
