package leave

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

var (
	ErrLeaveRecordNotFound   = errors.New("leave record not found")
	ErrLeaveYearNotFound     = errors.New("leave year not found")
	ErrNoCurrentLeaveYear    = errors.New("no leave year is marked as current")
	ErrInvalidDateRange      = errors.New("start date must not be after end date")
	ErrOverlappingLeave      = errors.New("leave overlaps an existing record")
	ErrInvalidLeaveType      = errors.New("invalid leave type")
	ErrInvalidDurationPolicy = errors.New("invalid duration policy")
	ErrConfirmationRequired  = errors.New("operation requires explicit confirmation")
	ErrLeaveYearExists       = errors.New("leave year already exists")
	ErrUnauthorizedAccess    = errors.New("unauthorized to access this leave record")
	ErrConcurrentUpdate      = errors.New("leave record was modified concurrently")
	ErrPersist               = errors.New("failed to persist leave data")
)

// RangeError reports a leave range whose start is after its end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid date range %s..%s: start date is after end date",
		datemath.FormatDate(e.Start), datemath.FormatDate(e.End))
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidDateRange
}

// OverlapError carries the existing records that collide with a candidate range.
type OverlapError struct {
	Conflicts []LeaveRecord
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("leave overlaps %d existing record(s)", len(e.Conflicts))
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlappingLeave
}

// PersistError wraps a storage failure of a leave mutation. It is never retried.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s leave record: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}
