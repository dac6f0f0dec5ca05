package transfer

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected csv or xlsx")
	ErrMissingColumn     = errors.New("required column is missing from the header row")
	ErrEmptyFile         = errors.New("file contains no data rows")
)

// ParseFormat accepts a bare format name or a file name with extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch Format(s) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType returns the MIME type used when serving an export.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ImportResult is the tally of an import plus the balance warnings raised by accepted rows.
type ImportResult struct {
	batch.Result
	Created  []string               `json:"created"`
	Warnings []leave.BalanceWarning `json:"warnings"`
}

// Service moves leave data in and out of spreadsheets. Imported rows go through the
// regular leave lifecycle, so overlaps and balances are enforced per row.
type Service struct {
	leaveService leave.LeaveService
	employeeRepo employee.EmployeeRepository
}

func NewService(leaveService leave.LeaveService, employeeRepo employee.EmployeeRepository) *Service {
	return &Service{
		leaveService: leaveService,
		employeeRepo: employeeRepo,
	}
}

var errEmployeeCodeRequired = errors.New("employee_code is required")
