package settings

import "time"

// Settings is the singleton row holding leave allocations.
type Settings struct {
	DefaultLeaveAllocation int
	SickLeaveAllocation    int
	UpdatedAt              time.Time
}

// Defaults is used when no settings row has been saved yet.
type Defaults struct {
	DefaultLeaveAllocation int
	SickLeaveAllocation    int
}
