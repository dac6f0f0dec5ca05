package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	domainsettings "github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/datemath"
	"github.com/cmlabs-hris/hris-leave-engine/internal/repository/sqlite"
	leavesvc "github.com/cmlabs-hris/hris-leave-engine/internal/service/leave"
	settingssvc "github.com/cmlabs-hris/hris-leave-engine/internal/service/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store     *sqlite.Store
	employees employee.EmployeeRepository
	records   leave.LeaveRecordRepository
	years     leave.LeaveYearRepository
	archive   leave.ArchiveRepository
	deps      leavesvc.Dependencies
}

func newEnv(t *testing.T, now string) *env {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := &env{
		store:     store,
		employees: sqlite.NewEmployeeRepository(store),
		records:   sqlite.NewLeaveRecordRepository(store),
		years:     sqlite.NewLeaveYearRepository(store),
		archive:   sqlite.NewArchiveRepository(store),
	}
	e.deps = leavesvc.Dependencies{
		Transactor: store,
		Locker:     sqlite.NewEmployeeLocker(),
		Records:    e.records,
		Years:      e.years,
		Archive:    e.archive,
		Employees:  e.employees,
		Settings: settingssvc.NewSettingsService(sqlite.NewSettingsRepository(store),
			domainsettings.Defaults{DefaultLeaveAllocation: 28, SickLeaveAllocation: 10}),
		YearStartMonth: time.April,
		Now:            func() time.Time { return mustDay(now).Add(10 * time.Hour) },
	}
	return e
}

func mustDay(s string) time.Time {
	d, err := datemath.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (e *env) employee(t *testing.T, code string, active bool) employee.Employee {
	t.Helper()
	emp, err := e.employees.Create(context.Background(), employee.Employee{
		EmployeeCode: code, FullName: code, DaysRemaining: 28, IsActive: active,
	})
	require.NoError(t, err)
	return emp
}

func (e *env) year(t *testing.T, start, end string, current bool) leave.LeaveYear {
	t.Helper()
	y, err := e.years.Create(context.Background(), leave.LeaveYear{StartDate: mustDay(start), EndDate: mustDay(end), IsCurrent: current})
	require.NoError(t, err)
	return y
}

func TestScenario_AnnualLeaveBalance(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-03-01")
	year := e.year(t, "2023-04-01", "2024-03-31", true)
	doe := e.employee(t, "JDOE", true)

	_, err := e.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: doe.ID, LeaveType: leave.LeaveTypeAnnual,
		StartDate: mustDay("2024-03-01"), EndDate: mustDay("2024-03-10"), Duration: 8, LeaveYearID: year.ID,
	})
	require.NoError(t, err)

	svc := leavesvc.NewLeaveService(e.deps)

	_, err = svc.CreateLeave(ctx, leave.CreateLeaveRequest{
		EmployeeID: doe.ID, LeaveType: "Annual", StartDate: "2024-03-05", EndDate: "2024-03-06",
		DurationPolicy: leave.DurationPolicyBusinessDays,
	})
	var overlap *leave.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Len(t, overlap.Conflicts, 1)

	result, err := svc.CreateLeave(ctx, leave.CreateLeaveRequest{
		EmployeeID: doe.ID, LeaveType: "Annual", StartDate: "2024-03-11", EndDate: "2024-03-13",
		DurationPolicy: leave.DurationPolicyBusinessDays,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Record.Duration)
	assert.Nil(t, result.Warning)
	assert.False(t, result.BalanceStale)

	stored, err := e.employees.GetByID(ctx, doe.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, stored.DaysTaken)
	assert.Equal(t, 17, stored.DaysRemaining)
}

func TestOverlapTrigger_RejectsDirectInsert(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-05-01")
	year := e.year(t, "2024-04-01", "2025-03-31", true)
	emp := e.employee(t, "E1", true)

	first, err := e.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeAnnual,
		StartDate: mustDay("2024-05-06"), EndDate: mustDay("2024-05-10"), Duration: 5, LeaveYearID: year.ID,
	})
	require.NoError(t, err)

	_, err = e.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeSick,
		StartDate: mustDay("2024-05-10"), EndDate: mustDay("2024-05-10"), Duration: 1, LeaveYearID: year.ID,
	})
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	// Updating a record onto its own range is not an overlap.
	first.EndDate = mustDay("2024-05-09")
	first.Duration = 4
	updated, err := e.records.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, year.ID, updated.LeaveYearID)
	assert.Equal(t, 4, updated.Duration)
}

func TestConcurrentCreate_OnlyOneSucceeds(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-05-01")
	e.year(t, "2024-04-01", "2025-03-31", true)
	emp := e.employee(t, "E1", true)
	svc := leavesvc.NewLeaveService(e.deps)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		overlaps  int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateLeave(ctx, leave.CreateLeaveRequest{
				EmployeeID: emp.ID, LeaveType: "Annual", StartDate: "2024-06-03", EndDate: "2024-06-05",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, leave.ErrOverlappingLeave):
				overlaps++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, overlaps)
}

func TestRollover_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-04-02")
	closing := e.year(t, "2023-04-01", "2024-03-31", true)
	emp := e.employee(t, "E1", true)
	for _, d := range []string{"2023-06-01", "2023-09-12", "2024-02-20"} {
		_, err := e.records.Create(ctx, leave.LeaveRecord{
			EmployeeID: emp.ID, LeaveType: leave.LeaveTypeAnnual,
			StartDate: mustDay(d), EndDate: mustDay(d), Duration: 1, LeaveYearID: closing.ID,
		})
		require.NoError(t, err)
	}

	svc := leavesvc.NewYearService(e.deps)

	first, err := svc.Rollover(ctx, leave.RolloverRequest{Confirm: true})
	require.NoError(t, err)
	assert.True(t, first.YearCreated)
	assert.EqualValues(t, 3, first.ArchivedCount)
	assert.Equal(t, "2024-04-01", first.CurrentYear.StartDate)

	second, err := svc.Rollover(ctx, leave.RolloverRequest{Confirm: true})
	require.NoError(t, err)
	assert.False(t, second.YearCreated)
	assert.EqualValues(t, 0, second.ArchivedCount)
	assert.Equal(t, first.CurrentYear.ID, second.CurrentYear.ID)

	archived, err := e.archive.CountByLeaveYear(ctx, closing.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, archived)

	live, err := e.records.GetByLeaveYear(ctx, closing.ID)
	require.NoError(t, err)
	assert.Empty(t, live)

	years, err := e.years.List(ctx)
	require.NoError(t, err)
	require.Len(t, years, 2)
	current := 0
	for _, y := range years {
		if y.IsCurrent {
			current++
		}
	}
	assert.Equal(t, 1, current)

	_, err = svc.Rollover(ctx, leave.RolloverRequest{})
	assert.ErrorIs(t, err, leave.ErrConfirmationRequired)
}

func TestResetBalances_SkipsInactiveEmployees(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-05-01")
	active := e.employee(t, "E1", true)
	inactive := e.employee(t, "E2", false)
	require.NoError(t, e.employees.UpdateBalance(ctx, active.ID, 12, 16))
	require.NoError(t, e.employees.UpdateBalance(ctx, inactive.ID, 5, 23))

	svc := leavesvc.NewBalanceService(e.deps)
	result, err := svc.ResetBalances(ctx, leave.ResetBalancesRequest{Confirm: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.ResetCount)
	assert.Equal(t, 28, result.Allocation)

	got, err := e.employees.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.DaysTaken)
	assert.Equal(t, 28, got.DaysRemaining)

	got, err = e.employees.GetByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.DaysTaken)
	assert.Equal(t, 23, got.DaysRemaining)
}

func TestEmployeeRepository_UniqueAndList(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "2024-05-01")
	e.employee(t, "E1", true)
	e.employee(t, "E2", false)

	_, err := e.employees.Create(ctx, employee.Employee{EmployeeCode: "E1", FullName: "dup"})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)

	status := employee.EmployeeStatusInactive
	list, total, err := e.employees.List(ctx, employee.EmployeeFilter{Status: &status, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "E2", list[0].EmployeeCode)
}

func TestLeaveYearRepository_SingleCurrentIndex(t *testing.T) {
	e := newEnv(t, "2024-05-01")
	e.year(t, "2023-04-01", "2024-03-31", true)

	_, err := e.years.Create(context.Background(), leave.LeaveYear{
		StartDate: mustDay("2024-04-01"), EndDate: mustDay("2025-03-31"), IsCurrent: true,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, leave.ErrLeaveYearExists)

	_, err = e.years.Create(context.Background(), leave.LeaveYear{
		StartDate: mustDay("2023-04-01"), EndDate: mustDay("2024-03-31"),
	})
	assert.ErrorIs(t, err, leave.ErrLeaveYearExists)
}
