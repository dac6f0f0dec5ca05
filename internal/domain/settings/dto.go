package settings

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/validator"
)

const maxAllocation = 366

type UpdateSettingsRequest struct {
	DefaultLeaveAllocation *int `json:"default_leave_allocation,omitempty"`
	SickLeaveAllocation    *int `json:"sick_leave_allocation,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.DefaultLeaveAllocation == nil && r.SickLeaveAllocation == nil {
		errs.Add("settings", "at least one field must be provided")
	}
	if v := r.DefaultLeaveAllocation; v != nil && (*v < 0 || *v > maxAllocation) {
		errs.Add("default_leave_allocation", "default_leave_allocation must be between 0 and 366")
	}
	if v := r.SickLeaveAllocation; v != nil && (*v < 0 || *v > maxAllocation) {
		errs.Add("sick_leave_allocation", "sick_leave_allocation must be between 0 and 366")
	}

	return errs.Err()
}

type SettingsResponse struct {
	DefaultLeaveAllocation int     `json:"default_leave_allocation"`
	SickLeaveAllocation    int     `json:"sick_leave_allocation"`
	UpdatedAt              *string `json:"updated_at,omitempty"`
}

func NewSettingsResponse(s Settings) SettingsResponse {
	resp := SettingsResponse{
		DefaultLeaveAllocation: s.DefaultLeaveAllocation,
		SickLeaveAllocation:    s.SickLeaveAllocation,
	}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
