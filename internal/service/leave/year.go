package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"golang.org/x/sync/singleflight"
)

// yearResolver collapses concurrent lookups of the current leave year into one query.
// It must not be called with a ctx that carries a transaction: a caller joining a
// flight would read outside its own transaction.
type yearResolver struct {
	repo  leave.LeaveYearRepository
	group singleflight.Group
}

func newYearResolver(repo leave.LeaveYearRepository) *yearResolver {
	return &yearResolver{repo: repo}
}

func (r *yearResolver) current(ctx context.Context) (leave.LeaveYear, error) {
	v, err, _ := r.group.Do("current", func() (interface{}, error) {
		return r.repo.GetCurrent(ctx)
	})
	if err != nil {
		return leave.LeaveYear{}, err
	}
	return v.(leave.LeaveYear), nil
}

// leaveYearFor returns the leave year that opens in the given calendar year.
func leaveYearFor(now time.Time, startMonth time.Month) (time.Time, time.Time) {
	return datemath.FiscalYear(now.Year(), startMonth)
}
