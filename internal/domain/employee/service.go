package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
)

type EmployeeService interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)
	UpdateEmployee(ctx context.Context, req UpdateEmployeeRequest) (EmployeeResponse, error)
	DeleteEmployee(ctx context.Context, id string) error
	// BulkDelete removes each employee and their leave records, one employee at a time.
	BulkDelete(ctx context.Context, req BulkDeleteRequest, onProgress batch.ProgressFunc) (batch.Result, error)
}
