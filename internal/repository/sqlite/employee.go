package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
)

const employeeSelect = `
	SELECT id, employee_code, full_name, email, days_taken, days_remaining, is_active, created_at, updated_at
	FROM employees`

type employeeRepositoryImpl struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{store: store}
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		emp                  employee.Employee
		email                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &email,
		&emp.DaysTaken, &emp.DaysRemaining, &emp.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.Email = stringPtr(email)
	emp.CreatedAt = parseTime(createdAt)
	emp.UpdatedAt = parseTime(updatedAt)
	return emp, nil
}

func (e *employeeRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (employee.Employee, error) {
	emp, err := scanEmployee(e.store.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return emp, nil
}

func (e *employeeRepositoryImpl) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	rows, err := e.store.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, employeeSelect+` WHERE id = ?`, id)
}

// GetByEmployeeCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByEmployeeCode(ctx context.Context, employeeCode string) (employee.Employee, error) {
	return e.getOne(ctx, employeeSelect+` WHERE employee_code = ?`, employeeCode)
}

// GetActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActive(ctx context.Context) ([]employee.Employee, error) {
	return e.queryEmployees(ctx, employeeSelect+` WHERE is_active = 1 ORDER BY employee_code`)
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}

	if filter.Search != nil {
		conditions = append(conditions, "(full_name LIKE ? OR employee_code LIKE ? OR email LIKE ?)")
		pattern := "%" + *filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Status != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *filter.Status == employee.EmployeeStatusActive)
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := e.store.querier(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM employees WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset())
	employees, err := e.queryEmployees(ctx,
		employeeSelect+" WHERE "+whereClause+" ORDER BY employee_code ASC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, total, nil
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	now := time.Now().UTC()
	newEmployee.ID = newID()
	newEmployee.CreatedAt = now
	newEmployee.UpdatedAt = now

	_, err := e.store.querier(ctx).ExecContext(ctx, `
		INSERT INTO employees (
			id, employee_code, full_name, email, days_taken, days_remaining, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newEmployee.ID, newEmployee.EmployeeCode, newEmployee.FullName, nullString(newEmployee.Email),
		newEmployee.DaysTaken, newEmployee.DaysRemaining, newEmployee.IsActive,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return employee.Employee{}, mapEmployeeError(err)
	}
	return newEmployee, nil
}

// Update implements employee.EmployeeRepository. Balance columns are left alone.
func (e *employeeRepositoryImpl) Update(ctx context.Context, emp employee.Employee) error {
	res, err := e.store.querier(ctx).ExecContext(ctx, `
		UPDATE employees
		SET full_name = ?, email = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		emp.FullName, nullString(emp.Email), emp.IsActive, formatTime(time.Now()), emp.ID,
	)
	if err != nil {
		return mapEmployeeError(err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// UpdateBalance implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateBalance(ctx context.Context, id string, daysTaken, daysRemaining int) error {
	res, err := e.store.querier(ctx).ExecContext(ctx, `
		UPDATE employees
		SET days_taken = ?, days_remaining = ?, updated_at = ?
		WHERE id = ?`,
		daysTaken, daysRemaining, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// ResetActiveBalances implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ResetActiveBalances(ctx context.Context, allocation int) (int64, error) {
	res, err := e.store.querier(ctx).ExecContext(ctx, `
		UPDATE employees
		SET days_taken = 0, days_remaining = ?, updated_at = ?
		WHERE is_active = 1`,
		allocation, formatTime(time.Now()),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := e.store.querier(ctx).ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func mapEmployeeError(err error) error {
	switch {
	case isUniqueViolation(err, "employees.email"):
		return employee.ErrEmailExists
	case isUniqueViolation(err, "employees.employee_code"):
		return employee.ErrEmployeeCodeExists
	}
	return err
}
