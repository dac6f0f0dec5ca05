package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/validator"
)

const maxNotesLength = 1000

type CreateLeaveRequest struct {
	EmployeeID     string         `json:"employee_id"`
	LeaveType      string         `json:"leave_type"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	Notes          *string        `json:"notes,omitempty"`
	DurationPolicy DurationPolicy `json:"duration_policy,omitempty"`

	// Set by the handler from the token, never from the body
	CreatedBy string `json:"-"`
}

func (r *CreateLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	// Employee ID
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	} else if !validator.IsValidID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	// Leave type
	if validator.IsEmpty(r.LeaveType) {
		errs.Add("leave_type", "leave_type is required")
	} else if !LeaveType(r.LeaveType).IsValid() {
		errs.Add("leave_type", "leave_type must be one of Annual, Sick, Unpaid, Working")
	}

	// Dates
	if validator.IsEmpty(r.StartDate) {
		errs.Add("start_date", "start_date is required")
	} else if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(r.EndDate) {
		errs.Add("end_date", "end_date is required")
	} else if _, ok := validator.IsValidDate(r.EndDate); !ok {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if start, ok := validator.IsValidDate(r.StartDate); ok {
		if end, ok := validator.IsValidDate(r.EndDate); ok {
			checkRangeLength(&errs, start, end)
		}
	}

	if r.DurationPolicy != "" && !r.DurationPolicy.IsValid() {
		errs.Add("duration_policy", "duration_policy must be calendar or business_days")
	}

	if r.Notes != nil && len(*r.Notes) > maxNotesLength {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

// ValidateRangeLength rejects ranges longer than datemath.MaxRangeDays.
// A reversed range is reported separately as a RangeError.
func ValidateRangeLength(start, end time.Time) error {
	var errs validator.ValidationErrors
	checkRangeLength(&errs, start, end)
	return errs.Err()
}

func checkRangeLength(errs *validator.ValidationErrors, start, end time.Time) {
	if start.After(end) {
		return
	}
	if days, err := datemath.CalendarDays(start, end); err == nil && days > datemath.MaxRangeDays {
		errs.Add("end_date", fmt.Sprintf("leave range must not exceed %d days", datemath.MaxRangeDays))
	}
}

type UpdateLeaveRequest struct {
	ID             string         `json:"-"`
	EmployeeID     *string        `json:"employee_id,omitempty"`
	LeaveType      *string        `json:"leave_type,omitempty"`
	StartDate      *string        `json:"start_date,omitempty"`
	EndDate        *string        `json:"end_date,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	DurationPolicy DurationPolicy `json:"duration_policy,omitempty"`
}

func (r *UpdateLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}

	if r.EmployeeID != nil && !validator.IsValidID(*r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	if r.LeaveType != nil && !LeaveType(*r.LeaveType).IsValid() {
		errs.Add("leave_type", "leave_type must be one of Annual, Sick, Unpaid, Working")
	}

	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}

	if r.DurationPolicy != "" && !r.DurationPolicy.IsValid() {
		errs.Add("duration_policy", "duration_policy must be calendar or business_days")
	}

	if r.Notes != nil && len(*r.Notes) > maxNotesLength {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

type RolloverRequest struct {
	Confirm bool `json:"confirm"`
}

type ResetBalancesRequest struct {
	Confirm    bool `json:"confirm"`
	Allocation *int `json:"allocation,omitempty"`
}

func (r *ResetBalancesRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Allocation != nil && (*r.Allocation < 0 || *r.Allocation > 366) {
		errs.Add("allocation", "allocation must be between 0 and 366")
	}

	return errs.Err()
}

type LeaveRecordResponse struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName *string   `json:"employee_name,omitempty"`
	LeaveType    LeaveType `json:"leave_type"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Duration     int       `json:"duration"`
	LeaveYearID  string    `json:"leave_year_id"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

func NewLeaveRecordResponse(r LeaveRecord) LeaveRecordResponse {
	return LeaveRecordResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    r.LeaveType,
		StartDate:    datemath.FormatDate(r.StartDate),
		EndDate:      datemath.FormatDate(r.EndDate),
		Duration:     r.Duration,
		LeaveYearID:  r.LeaveYearID,
		Notes:        r.Notes,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
}

func NewLeaveRecordResponses(records []LeaveRecord) []LeaveRecordResponse {
	responses := make([]LeaveRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, NewLeaveRecordResponse(r))
	}
	return responses
}

// LeaveResult is returned by create and update. Warning is set when the annual
// allocation is exceeded; BalanceStale is set when the record was saved but the
// employee balance could not be recomputed afterwards.
type LeaveResult struct {
	Record       LeaveRecordResponse `json:"record"`
	Warning      *BalanceWarning     `json:"warning,omitempty"`
	Balance      *Balance            `json:"balance,omitempty"`
	BalanceStale bool                `json:"balance_stale"`
}

type DeleteLeaveResult struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	Balance      *Balance `json:"balance,omitempty"`
	BalanceStale bool     `json:"balance_stale"`
}

type LeaveYearResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsCurrent bool   `json:"is_current"`
}

func NewLeaveYearResponse(y LeaveYear) LeaveYearResponse {
	return LeaveYearResponse{
		ID:        y.ID,
		StartDate: datemath.FormatDate(y.StartDate),
		EndDate:   datemath.FormatDate(y.EndDate),
		IsCurrent: y.IsCurrent,
	}
}

type BalanceResponse struct {
	EmployeeID     string            `json:"employee_id"`
	LeaveYear      LeaveYearResponse `json:"leave_year"`
	Allocation     int               `json:"allocation"`
	DaysTaken      int               `json:"days_taken"`
	DaysRemaining  int               `json:"days_remaining"`
	Exceeded       bool              `json:"exceeded"`
	SickAllocation int               `json:"sick_allocation"`
	SickTaken      int               `json:"sick_taken"`
	ByType         map[LeaveType]int `json:"by_type"`
}

type RolloverResult struct {
	ArchivedCount int64              `json:"archived_count"`
	PreviousYear  *LeaveYearResponse `json:"previous_year,omitempty"`
	CurrentYear   LeaveYearResponse  `json:"current_year"`
	YearCreated   bool               `json:"year_created"`
}

type ResetResult struct {
	ResetCount int64 `json:"reset_count"`
	Allocation int   `json:"allocation"`
}
