package employee

import "time"

type Employee struct {
	ID            string
	EmployeeCode  string
	FullName      string
	Email         *string
	DaysTaken     int
	DaysRemaining int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)
