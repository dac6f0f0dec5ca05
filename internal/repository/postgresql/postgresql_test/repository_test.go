package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	tx        *postgresql.Transactor
	employees employee.EmployeeRepository
	records   leave.LeaveRecordRepository
	years     leave.LeaveYearRepository
	archive   leave.ArchiveRepository
	settings  settings.SettingsRepository
}

func newFixture(t *testing.T) fixture {
	setup := NewTestDatabase(t)
	return fixture{
		tx:        postgresql.NewTransactor(setup.DB),
		employees: postgresql.NewEmployeeRepository(setup.DB),
		records:   postgresql.NewLeaveRecordRepository(setup.DB),
		years:     postgresql.NewLeaveYearRepository(setup.DB),
		archive:   postgresql.NewArchiveRepository(setup.DB),
		settings:  postgresql.NewSettingsRepository(setup.DB),
	}
}

func (f fixture) seed(t *testing.T, ctx context.Context) (employee.Employee, leave.LeaveYear) {
	emp, err := f.employees.Create(ctx, employee.Employee{EmployeeCode: "EMP-001", FullName: "J. Doe", DaysRemaining: 28, IsActive: true})
	require.NoError(t, err)
	year, err := f.years.Create(ctx, leave.LeaveYear{StartDate: date("2024-04-01"), EndDate: date("2025-03-31"), IsCurrent: true})
	require.NoError(t, err)
	return emp, year
}

func TestLeaveRecordRepository_ExclusionConstraint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp, year := f.seed(t, ctx)

	_, err := f.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeAnnual,
		StartDate: date("2024-05-06"), EndDate: date("2024-05-10"), Duration: 5, LeaveYearID: year.ID,
	})
	require.NoError(t, err)

	// Touching the last day of the existing range still overlaps.
	_, err = f.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeSick,
		StartDate: date("2024-05-10"), EndDate: date("2024-05-13"), Duration: 2, LeaveYearID: year.ID,
	})
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	_, err = f.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeSick,
		StartDate: date("2024-05-11"), EndDate: date("2024-05-13"), Duration: 1, LeaveYearID: year.ID,
	})
	assert.NoError(t, err)

	records, err := f.records.GetByEmployee(ctx, emp.ID, &year.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "J. Doe", *records[0].EmployeeName)
}

func TestLeaveYearRepository_SingleCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, year := f.seed(t, ctx)

	_, err := f.years.Create(ctx, leave.LeaveYear{StartDate: date("2025-04-01"), EndDate: date("2026-03-31"), IsCurrent: true})
	require.Error(t, err)

	_, err = f.years.Create(ctx, leave.LeaveYear{StartDate: date("2024-04-01"), EndDate: date("2025-03-31")})
	assert.ErrorIs(t, err, leave.ErrLeaveYearExists)

	err = f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := f.years.ClearCurrent(ctx); err != nil {
			return err
		}
		_, err := f.years.Create(ctx, leave.LeaveYear{StartDate: date("2025-04-01"), EndDate: date("2026-03-31"), IsCurrent: true})
		return err
	})
	require.NoError(t, err)

	current, err := f.years.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, date("2025-04-01"), current.StartDate.UTC())

	previous, err := f.years.GetLatestPrevious(ctx)
	require.NoError(t, err)
	assert.Equal(t, year.ID, previous.ID)
}

func TestArchiveRepository_CreateBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp, year := f.seed(t, ctx)

	rec, err := f.records.Create(ctx, leave.LeaveRecord{
		EmployeeID: emp.ID, LeaveType: leave.LeaveTypeAnnual,
		StartDate: date("2024-06-03"), EndDate: date("2024-06-04"), Duration: 2, LeaveYearID: year.ID,
	})
	require.NoError(t, err)

	batch := []leave.ArchivedLeaveRecord{{LeaveRecord: rec, ArchivedAt: time.Now()}}
	n, err := f.archive.CreateBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.archive.CreateBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := f.archive.CountByLeaveYear(ctx, year.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEmployeeLocker_SerializesTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp, _ := f.seed(t, ctx)
	locker := postgresql.NewEmployeeLocker()

	assert.Error(t, locker.LockEmployees(ctx, emp.ID))

	var (
		mu     sync.Mutex
		inside int
		peak   int
		wg     sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := locker.LockEmployees(ctx, emp.ID); err != nil {
					return err
				}
				mu.Lock()
				inside++
				peak = max(peak, inside)
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
}

func TestEmployeeLocker_ExclusiveYearLockWaitsForWriters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	locker := postgresql.NewEmployeeLocker()

	assert.Error(t, locker.LockLeaveYear(ctx, true))

	writerHolding := make(chan struct{})
	releaseWriter := make(chan struct{})
	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		err := f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := locker.LockLeaveYear(ctx, false); err != nil {
				return err
			}
			close(writerHolding)
			<-releaseWriter
			record("writer")
			return nil
		})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		<-writerHolding
		err := f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := locker.LockLeaveYear(ctx, true); err != nil {
				return err
			}
			record("rollover")
			return nil
		})
		assert.NoError(t, err)
	}()

	<-writerHolding
	time.Sleep(50 * time.Millisecond)
	close(releaseWriter)
	wg.Wait()

	assert.Equal(t, []string{"writer", "rollover"}, order)
}

func TestEmployeeRepository_ResetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	active, _ := f.seed(t, ctx)
	inactive, err := f.employees.Create(ctx, employee.Employee{EmployeeCode: "EMP-002", FullName: "Left", DaysTaken: 3, DaysRemaining: 25})
	require.NoError(t, err)

	require.NoError(t, f.employees.UpdateBalance(ctx, active.ID, 11, 17))

	n, err := f.employees.ResetActiveBalances(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.employees.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.DaysTaken)
	assert.Equal(t, 30, got.DaysRemaining)

	got, err = f.employees.GetByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.DaysTaken)

	search := "doe"
	list, total, err := f.employees.List(ctx, employee.EmployeeFilter{Search: &search, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	_, err = f.employees.Create(ctx, employee.Employee{EmployeeCode: "EMP-001", FullName: "Dup"})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)
}

func TestSettingsRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.settings.Get(ctx)
	assert.ErrorIs(t, err, settings.ErrSettingsNotFound)

	_, err = f.settings.Upsert(ctx, settings.Settings{DefaultLeaveAllocation: 25, SickLeaveAllocation: 8})
	require.NoError(t, err)
	_, err = f.settings.Upsert(ctx, settings.Settings{DefaultLeaveAllocation: 30, SickLeaveAllocation: 8})
	require.NoError(t, err)

	got, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, got.DefaultLeaveAllocation)
}
