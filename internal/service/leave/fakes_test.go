package leave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for every repository the leave services use.
// Error fields inject failures into single operations.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]leave.LeaveRecord
	years     map[string]leave.LeaveYear
	archived  map[string]leave.ArchivedLeaveRecord
	employees map[string]employee.Employee

	createCalls        int
	updateBalanceCalls int
	lockCalls          [][]string
	yearLockCalls      []bool

	// beforeTx runs ahead of each transaction body, outside the store lock.
	beforeTx func()

	createErr        error
	updateBalanceErr error
	getCurrentErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   make(map[string]leave.LeaveRecord),
		years:     make(map[string]leave.LeaveYear),
		archived:  make(map[string]leave.ArchivedLeaveRecord),
		employees: make(map[string]employee.Employee),
	}
}

func (f *fakeStore) addEmployee(name string, active bool) employee.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := employee.Employee{ID: uuid.NewString(), EmployeeCode: name, FullName: name, IsActive: active}
	f.employees[e.ID] = e
	return e
}

func (f *fakeStore) addYear(start, end string, current bool) leave.LeaveYear {
	f.mu.Lock()
	defer f.mu.Unlock()
	y := leave.LeaveYear{ID: uuid.NewString(), StartDate: day(start), EndDate: day(end), IsCurrent: current}
	f.years[y.ID] = y
	return y
}

func (f *fakeStore) addRecord(r leave.LeaveRecord) leave.LeaveRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	f.records[r.ID] = r
	return r
}

func (f *fakeStore) employee(id string) employee.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.employees[id]
}

// database.Transactor
func (f *fakeStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.beforeTx != nil {
		f.beforeTx()
	}
	return fn(ctx)
}

// leave.EmployeeLocker
func (f *fakeStore) LockEmployees(ctx context.Context, employeeIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls = append(f.lockCalls, employeeIDs)
	return nil
}

func (f *fakeStore) LockLeaveYear(ctx context.Context, exclusive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.yearLockCalls = append(f.yearLockCalls, exclusive)
	return nil
}

// leave.LeaveRecordRepository

func (f *fakeStore) GetByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
	}
	return r, nil
}

func (f *fakeStore) GetByEmployee(ctx context.Context, employeeID string, leaveYearID *string) ([]leave.LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRecord
	for _, r := range f.records {
		if r.EmployeeID != employeeID {
			continue
		}
		if leaveYearID != nil && r.LeaveYearID != *leaveYearID {
			continue
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func (f *fakeStore) GetByLeaveYear(ctx context.Context, leaveYearID string) ([]leave.LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRecord
	for _, r := range f.records {
		if r.LeaveYearID == leaveYearID {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return leave.LeaveRecord{}, f.createErr
	}
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) Update(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[record.ID]; !ok {
		return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
	}
	record.UpdatedAt = time.Now()
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return leave.ErrLeaveRecordNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.records {
		if r.EmployeeID == employeeID {
			delete(f.records, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.records {
		if r.LeaveYearID == leaveYearID {
			delete(f.records, id)
			n++
		}
	}
	return n, nil
}

// leave.LeaveYearRepository, wrapped so method names do not clash with records.
type fakeYears struct{ *fakeStore }

func (f fakeYears) GetByID(ctx context.Context, id string) (leave.LeaveYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	y, ok := f.years[id]
	if !ok {
		return leave.LeaveYear{}, leave.ErrLeaveYearNotFound
	}
	return y, nil
}

func (f fakeYears) GetCurrent(ctx context.Context) (leave.LeaveYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getCurrentErr != nil {
		return leave.LeaveYear{}, f.getCurrentErr
	}
	for _, y := range f.years {
		if y.IsCurrent {
			return y, nil
		}
	}
	return leave.LeaveYear{}, leave.ErrNoCurrentLeaveYear
}

func (f fakeYears) GetLatestPrevious(ctx context.Context) (leave.LeaveYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		latest leave.LeaveYear
		found  bool
	)
	for _, y := range f.years {
		if y.IsCurrent {
			continue
		}
		if !found || y.EndDate.After(latest.EndDate) {
			latest, found = y, true
		}
	}
	if !found {
		return leave.LeaveYear{}, leave.ErrLeaveYearNotFound
	}
	return latest, nil
}

func (f fakeYears) List(ctx context.Context) ([]leave.LeaveYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]leave.LeaveYear, 0, len(f.years))
	for _, y := range f.years {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f fakeYears) Create(ctx context.Context, year leave.LeaveYear) (leave.LeaveYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, y := range f.years {
		if y.StartDate.Equal(year.StartDate) {
			return leave.LeaveYear{}, leave.ErrLeaveYearExists
		}
		if y.IsCurrent && year.IsCurrent {
			return leave.LeaveYear{}, errors.New("two current leave years")
		}
	}
	year.ID = uuid.NewString()
	f.years[year.ID] = year
	return year, nil
}

func (f fakeYears) ClearCurrent(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, y := range f.years {
		y.IsCurrent = false
		f.years[id] = y
	}
	return nil
}

// leave.ArchiveRepository
type fakeArchive struct{ *fakeStore }

func (f fakeArchive) CreateBatch(ctx context.Context, records []leave.ArchivedLeaveRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range records {
		if _, ok := f.archived[r.ID]; ok {
			continue
		}
		f.archived[r.ID] = r
		n++
	}
	return n, nil
}

func (f fakeArchive) CountByLeaveYear(ctx context.Context, leaveYearID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.archived {
		if r.LeaveYearID == leaveYearID {
			n++
		}
	}
	return n, nil
}

// employee.EmployeeRepository
type fakeEmployees struct{ *fakeStore }

func (f fakeEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f fakeEmployees) GetByEmployeeCode(ctx context.Context, code string) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.employees {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f fakeEmployees) GetActive(ctx context.Context) ([]employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (f fakeEmployees) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	return nil, 0, errors.New("not used")
}

func (f fakeEmployees) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	return employee.Employee{}, errors.New("not used")
}

func (f fakeEmployees) Update(ctx context.Context, e employee.Employee) error {
	return errors.New("not used")
}

func (f fakeEmployees) UpdateBalance(ctx context.Context, id string, daysTaken, daysRemaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateBalanceCalls++
	if f.updateBalanceErr != nil {
		return f.updateBalanceErr
	}
	e, ok := f.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.DaysTaken, e.DaysRemaining = daysTaken, daysRemaining
	f.employees[id] = e
	return nil
}

func (f fakeEmployees) ResetActiveBalances(ctx context.Context, allocation int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.employees {
		if !e.IsActive {
			continue
		}
		e.DaysTaken, e.DaysRemaining = 0, allocation
		f.employees[id] = e
		n++
	}
	return n, nil
}

func (f fakeEmployees) Delete(ctx context.Context, id string) error {
	return errors.New("not used")
}

type fakeSettings struct {
	settings settings.Settings
}

func (f fakeSettings) GetSettings(ctx context.Context) (settings.Settings, error) {
	return f.settings, nil
}

func (f fakeSettings) UpdateSettings(ctx context.Context, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	return settings.Settings{}, errors.New("not used")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) PublishToMany(topics []string, event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == name {
			n++
		}
	}
	return n
}

func sortRecords(records []leave.LeaveRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].StartDate.Before(records[j].StartDate) })
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type testEnv struct {
	store     *fakeStore
	publisher *recordingPublisher
	deps      Dependencies
}

func newTestEnv(allocation int) *testEnv {
	store := newFakeStore()
	publisher := &recordingPublisher{}
	return &testEnv{
		store:     store,
		publisher: publisher,
		deps: Dependencies{
			Transactor: store,
			Locker:     store,
			Records:    store,
			Years:      fakeYears{store},
			Archive:    fakeArchive{store},
			Employees:  fakeEmployees{store},
			Settings: fakeSettings{settings: settings.Settings{
				DefaultLeaveAllocation: allocation,
				SickLeaveAllocation:    10,
			}},
			Publisher: publisher,
		},
	}
}
