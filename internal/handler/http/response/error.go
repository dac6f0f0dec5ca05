package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-leave-engine/internal/service/transfer"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var rangeErr *leave.RangeError
	if errors.As(err, &rangeErr) {
		BadRequest(w, rangeErr.Error(), map[string]string{
			"start_date": rangeErr.Start.Format("2006-01-02"),
			"end_date":   rangeErr.End.Format("2006-01-02"),
		})
		return
	}

	var overlapErr *leave.OverlapError
	if errors.As(err, &overlapErr) {
		ConflictWithDetails(w, "Leave overlaps an existing record", map[string]interface{}{
			"conflicts": leave.NewLeaveRecordResponses(overlapErr.Conflicts),
		})
		return
	}

	switch {
	// Leave domain errors
	case errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, "Leave overlaps an existing record")
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "Start date must not be after end date", nil)
	case errors.Is(err, leave.ErrNoCurrentLeaveYear):
		ConfigurationError(w, "No current leave year is configured; an administrator must run the year rollover")
	case errors.Is(err, leave.ErrLeaveRecordNotFound):
		NotFound(w, "Leave record not found")
	case errors.Is(err, leave.ErrLeaveYearNotFound):
		NotFound(w, "Leave year not found")
	case errors.Is(err, leave.ErrConfirmationRequired):
		BadRequest(w, "This operation requires \"confirm\": true", nil)
	case errors.Is(err, leave.ErrInvalidLeaveType), errors.Is(err, leave.ErrInvalidDurationPolicy):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrLeaveYearExists):
		Conflict(w, "Leave year already exists")
	case errors.Is(err, leave.ErrConcurrentUpdate):
		Conflict(w, "Leave record was modified concurrently, reload and try again")
	case errors.Is(err, leave.ErrUnauthorizedAccess):
		Forbidden(w, "Not allowed to access this leave record")
	case errors.Is(err, leave.ErrPersist):
		slog.Error("Leave persistence failed", "error", err)
		InternalServerError(w, "Could not save the leave record, please try again")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already exists")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, "Not allowed to access this employee")

	// Access errors
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrEmployeeScopeRequired):
		Forbidden(w, "Token is not linked to an employee")

	// Import / export errors
	case errors.Is(err, transfer.ErrUnsupportedFormat),
		errors.Is(err, transfer.ErrMissingColumn),
		errors.Is(err, transfer.ErrEmptyFile):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
