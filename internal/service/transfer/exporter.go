package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
	"github.com/xuri/excelize/v2"
)

const balanceSheet = "Balances"

var balanceHeader = []string{
	"employee_code", "full_name", "leave_year_start", "leave_year_end",
	"allocation", "days_taken", "days_remaining", "exceeded", "sick_taken",
}

// ExportBalances writes the computed current-year balance of every active employee.
// Balances are recomputed from leave records, not read from the employee cache.
func (s *Service) ExportBalances(ctx context.Context, w io.Writer, format Format, onProgress batch.ProgressFunc) (batch.Result, error) {
	if format != FormatCSV && format != FormatXLSX {
		return batch.Result{}, ErrUnsupportedFormat
	}

	employees, err := s.employeeRepo.GetActive(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("failed to load active employees: %w", err)
	}

	table := make([][]string, 0, len(employees))
	result := batch.Run(ctx, employees,
		func(e employee.Employee) string { return e.EmployeeCode },
		func(ctx context.Context, e employee.Employee) error {
			b, err := s.leaveService.GetBalance(ctx, e.ID)
			if err != nil {
				return err
			}
			table = append(table, []string{
				e.EmployeeCode,
				e.FullName,
				b.LeaveYear.StartDate,
				b.LeaveYear.EndDate,
				strconv.Itoa(b.Allocation),
				strconv.Itoa(b.DaysTaken),
				strconv.Itoa(b.DaysRemaining),
				strconv.FormatBool(b.Exceeded),
				strconv.Itoa(b.SickTaken),
			})
			return nil
		},
		onProgress,
	)
	if result.Cancelled {
		return result, ctx.Err()
	}

	switch format {
	case FormatXLSX:
		err = writeXLSX(w, table)
	default:
		err = writeCSV(w, table)
	}
	if err != nil {
		return result, err
	}

	slog.Info("Balance export finished", "format", format, "rows", len(table), "failed", result.Failed)
	return result, nil
}

func writeCSV(w io.Writer, table [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(balanceHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(table); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, table [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), balanceSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(balanceSheet, "A1", &balanceHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(balanceSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, record := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(record))
		for j, v := range record {
			// numeric columns are stored as numbers so they sum in a spreadsheet
			if n, convErr := strconv.Atoi(v); convErr == nil && j >= 4 {
				values[j] = n
			} else {
				values[j] = v
			}
		}
		if err := f.SetSheetRow(balanceSheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
