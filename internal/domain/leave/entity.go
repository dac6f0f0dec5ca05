package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

type LeaveType string

const (
	LeaveTypeAnnual  LeaveType = "Annual"
	LeaveTypeSick    LeaveType = "Sick"
	LeaveTypeUnpaid  LeaveType = "Unpaid"
	LeaveTypeWorking LeaveType = "Working"
)

var LeaveTypes = []LeaveType{LeaveTypeAnnual, LeaveTypeSick, LeaveTypeUnpaid, LeaveTypeWorking}

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeSick, LeaveTypeUnpaid, LeaveTypeWorking:
		return true
	}
	return false
}

// ConsumesBalance reports whether records of this type count against the annual allocation.
func (t LeaveType) ConsumesBalance() bool {
	return t == LeaveTypeAnnual
}

// DurationPolicy selects how the days of a leave range are counted.
type DurationPolicy string

const (
	DurationPolicyCalendar     DurationPolicy = "calendar"      // every day in the range, quick-add path
	DurationPolicyBusinessDays DurationPolicy = "business_days" // Monday to Friday only, full leave form
)

func (p DurationPolicy) IsValid() bool {
	return p == DurationPolicyCalendar || p == DurationPolicyBusinessDays
}

// Duration counts the inclusive range under the policy.
func (p DurationPolicy) Duration(start, end time.Time) (int, error) {
	switch p {
	case DurationPolicyCalendar:
		return datemath.CalendarDays(start, end)
	case DurationPolicyBusinessDays:
		return datemath.BusinessDays(start, end)
	default:
		return 0, ErrInvalidDurationPolicy
	}
}

// LeaveRecord entity
type LeaveRecord struct {
	ID          string
	EmployeeID  string
	LeaveType   LeaveType
	StartDate   time.Time
	EndDate     time.Time
	Duration    int
	LeaveYearID string
	Notes       *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// LeaveYear entity
type LeaveYear struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	IsCurrent bool
	CreatedAt time.Time
}

// Contains reports whether day t falls inside the year.
func (y LeaveYear) Contains(t time.Time) bool {
	return datemath.RangesOverlap(y.StartDate, y.EndDate, t, t)
}

// ArchivedLeaveRecord is a frozen copy of a record moved out by rollover.
type ArchivedLeaveRecord struct {
	LeaveRecord
	ArchivedAt time.Time
}

type Balance struct {
	Allocation    int `json:"allocation"`
	DaysTaken     int `json:"days_taken"`
	DaysRemaining int `json:"days_remaining"`
}

// Exceeded is true once taken days pass the allocation.
func (b Balance) Exceeded() bool {
	return b.DaysRemaining < 0
}

// BalanceWarning is attached to a successful result whose annual leave exceeds the allocation.
type BalanceWarning struct {
	EmployeeID           string `json:"employee_id"`
	Allocation           int    `json:"allocation"`
	ProspectiveTaken     int    `json:"prospective_days_taken"`
	ProspectiveRemaining int    `json:"prospective_days_remaining"`
	Message              string `json:"message"`
}
