package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmployeeCode(ctx context.Context, employeeCode string) (Employee, error)
	// GetActive returns every employee with is_active = true.
	GetActive(ctx context.Context) ([]Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, emp Employee) error
	// UpdateBalance overwrites the cached balance of one employee.
	UpdateBalance(ctx context.Context, id string, daysTaken, daysRemaining int) error
	// ResetActiveBalances sets days_taken = 0 and days_remaining = allocation for every active employee.
	ResetActiveBalances(ctx context.Context, allocation int) (int64, error)
	Delete(ctx context.Context, id string) error
}
