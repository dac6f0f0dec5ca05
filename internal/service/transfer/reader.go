package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"github.com/xuri/excelize/v2"
)

// Row is one leave line of an import file. Line is 1-based and counts the header.
type Row struct {
	Line           int
	EmployeeCode   string
	LeaveType      string
	StartDate      string
	EndDate        string
	Notes          string
	DurationPolicy string
}

var requiredColumns = []string{"employee_code", "leave_type", "start_date", "end_date"}

// ReadRows parses an import file. The first row must be a header naming the columns;
// notes and duration_policy are optional.
func ReadRows(r io.Reader, format Format) ([]Row, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = readCSV(r)
	case FormatXLSX:
		table, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(table)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return table, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}

	// Raw values keep date cells as serial numbers instead of a locale format.
	table, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return table, nil
}

func toRows(table [][]string) ([]Row, error) {
	if len(table) < 2 {
		return nil, ErrEmptyFile
	}

	index := make(map[string]int, len(table[0]))
	for i, name := range table[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]Row, 0, len(table)-1)
	for n, record := range table[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{
			Line:           n + 2,
			EmployeeCode:   cell(record, "employee_code"),
			LeaveType:      normalizeLeaveType(cell(record, "leave_type")),
			StartDate:      normalizeDate(cell(record, "start_date")),
			EndDate:        normalizeDate(cell(record, "end_date")),
			Notes:          cell(record, "notes"),
			DurationPolicy: strings.ToLower(cell(record, "duration_policy")),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeLeaveType maps "annual" or "ANNUAL" onto the canonical "Annual".
func normalizeLeaveType(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// normalizeDate converts Excel serial dates and a few common layouts to YYYY-MM-DD.
// Anything it cannot read is returned unchanged so validation reports it.
func normalizeDate(s string) string {
	if s == "" {
		return s
	}
	if _, err := datemath.ParseDate(s); err == nil {
		return s
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return datemath.FormatDate(t)
		}
	}
	for _, layout := range []string{"02/01/2006", "2006/01/02", "2 Jan 2006", "02-Jan-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return datemath.FormatDate(t)
		}
	}
	return s
}
