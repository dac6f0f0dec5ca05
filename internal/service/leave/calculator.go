package leave

import (
	"fmt"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
)

// ComputeBalance sums the durations of Annual records against the allocation.
// Other leave types never touch the balance, and remaining days are not clamped at zero.
func ComputeBalance(records []leave.LeaveRecord, allocation int) leave.Balance {
	taken := 0
	for _, r := range records {
		if r.LeaveType.ConsumesBalance() {
			taken += r.Duration
		}
	}

	return leave.Balance{
		Allocation:    allocation,
		DaysTaken:     taken,
		DaysRemaining: allocation - taken,
	}
}

// SummarizeByType totals durations per leave type. Every known type is present in the result.
func SummarizeByType(records []leave.LeaveRecord) map[leave.LeaveType]int {
	summary := make(map[leave.LeaveType]int, len(leave.LeaveTypes))
	for _, t := range leave.LeaveTypes {
		summary[t] = 0
	}
	for _, r := range records {
		summary[r.LeaveType] += r.Duration
	}
	return summary
}

// prospectiveWarning checks the balance an Annual candidate would leave behind.
func prospectiveWarning(employeeID string, existing []leave.LeaveRecord, candidate leave.LeaveRecord, allocation int) *leave.BalanceWarning {
	if !candidate.LeaveType.ConsumesBalance() {
		return nil
	}

	balance := ComputeBalance(append(existing[:len(existing):len(existing)], candidate), allocation)
	if !balance.Exceeded() {
		return nil
	}

	return &leave.BalanceWarning{
		EmployeeID:           employeeID,
		Allocation:           allocation,
		ProspectiveTaken:     balance.DaysTaken,
		ProspectiveRemaining: balance.DaysRemaining,
		Message: fmt.Sprintf("annual leave exceeds the allocation of %d days by %d day(s)",
			allocation, -balance.DaysRemaining),
	}
}
