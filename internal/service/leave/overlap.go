package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
)

// FindOverlaps returns the records whose inclusive range intersects [start, end].
// existing must already be scoped to one employee; every leave type is considered.
// The record with id excludeID is skipped so an edit never conflicts with itself.
func FindOverlaps(start, end time.Time, existing []leave.LeaveRecord, excludeID string) []leave.LeaveRecord {
	conflicts := make([]leave.LeaveRecord, 0)
	for _, r := range existing {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if datemath.RangesOverlap(start, end, r.StartDate, r.EndDate) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}
