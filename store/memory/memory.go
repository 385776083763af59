// Package memory provides an in-memory store implementation (tests/dev).
// It implements leave.Store, calendar.Store and attendance.Store behind a
// single RWMutex; values are cloned on the way in and out so callers never
// alias stored state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-engine/attendance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

type Store struct {
	mu sync.RWMutex

	leaveTypes      map[string]*leave.LeaveType
	availableLeaves map[string]*leave.AvailableLeave // employee|leaveType
	requests        map[string]*leave.LeaveRequest

	holidays      map[string]calendar.Holiday
	companyLeaves map[string]calendar.CompanyLeave

	shifts           map[string]*attendance.Shift
	shiftAssignments map[string]string // employee -> shift
	records          map[string]*attendance.Record // employee|date
	activities       map[string]*attendance.Activity

	seq int // id fallback for calendar rows saved without one
}

func New() *Store {
	return &Store{
		leaveTypes:       make(map[string]*leave.LeaveType),
		availableLeaves:  make(map[string]*leave.AvailableLeave),
		requests:         make(map[string]*leave.LeaveRequest),
		holidays:         make(map[string]calendar.Holiday),
		companyLeaves:    make(map[string]calendar.CompanyLeave),
		shifts:           make(map[string]*attendance.Shift),
		shiftAssignments: make(map[string]string),
		records:          make(map[string]*attendance.Record),
		activities:       make(map[string]*attendance.Activity),
	}
}

func pairKey(employeeID, leaveTypeID string) string { return employeeID + "|" + leaveTypeID }

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (m *Store) SaveLeaveType(_ context.Context, lt *leave.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *lt
	m.leaveTypes[lt.ID] = &cp
	return nil
}

func (m *Store) LeaveTypeByID(_ context.Context, id string) (*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lt, ok := m.leaveTypes[id]
	if !ok {
		return nil, leave.ErrLeaveTypeNotFound
	}
	cp := *lt
	return &cp, nil
}

func (m *Store) ListLeaveTypes(_ context.Context) ([]*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*leave.LeaveType, 0, len(m.leaveTypes))
	for _, lt := range m.leaveTypes {
		cp := *lt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// LEDGER ROWS
// =============================================================================

func (m *Store) SaveAvailableLeave(_ context.Context, al *leave.AvailableLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *al
	m.availableLeaves[pairKey(al.EmployeeID, al.LeaveTypeID)] = &cp
	return nil
}

func (m *Store) AvailableLeaveFor(_ context.Context, employeeID, leaveTypeID string) (*leave.AvailableLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	al, ok := m.availableLeaves[pairKey(employeeID, leaveTypeID)]
	if !ok {
		return nil, nil
	}
	cp := *al
	return &cp, nil
}

func (m *Store) ListAvailableLeaves(_ context.Context, employeeID string) ([]*leave.AvailableLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.AvailableLeave
	for _, al := range m.availableLeaves {
		if al.EmployeeID == employeeID {
			cp := *al
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID < out[j].LeaveTypeID })
	return out, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Store) SaveRequest(_ context.Context, r *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *Store) RequestByID(_ context.Context, id string) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Store) ListRequests(_ context.Context, employeeID string) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.EmployeeID == employeeID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) OverlappingRequests(_ context.Context, employeeID string, start, end calendar.Date) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.EmployeeID != employeeID || r.Status.Terminal() {
			continue
		}
		if r.Overlaps(start, end) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveRequestAndLedger writes both records under one lock acquisition.
func (m *Store) SaveRequestAndLedger(_ context.Context, r *leave.LeaveRequest, al *leave.AvailableLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rcp := *r
	alcp := *al
	m.requests[r.ID] = &rcp
	m.availableLeaves[pairKey(al.EmployeeID, al.LeaveTypeID)] = &alcp
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

func (m *Store) SaveHoliday(_ context.Context, h *calendar.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = m.nextID()
	}
	m.holidays[h.ID] = *h
	return nil
}

func (m *Store) ListHolidays(_ context.Context) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]calendar.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

func (m *Store) SaveCompanyLeave(_ context.Context, cl *calendar.CompanyLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cl.ID == "" {
		cl.ID = m.nextID()
	}
	m.companyLeaves[cl.ID] = *cl
	return nil
}

func (m *Store) ListCompanyLeaves(_ context.Context) ([]calendar.CompanyLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]calendar.CompanyLeave, 0, len(m.companyLeaves))
	for _, cl := range m.companyLeaves {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) DeleteCompanyLeave(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.companyLeaves, id)
	return nil
}

func (m *Store) nextID() string {
	m.seq++
	return "mem-" + itoa(m.seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// =============================================================================
// SHIFTS AND ATTENDANCE
// =============================================================================

func (m *Store) SaveShift(_ context.Context, s *attendance.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = cloneShift(s)
	return nil
}

func (m *Store) ShiftByID(_ context.Context, id string) (*attendance.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, attendance.ErrShiftNotFound
	}
	return cloneShift(s), nil
}

func (m *Store) ListShifts(_ context.Context) ([]*attendance.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*attendance.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		out = append(out, cloneShift(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) AssignShift(_ context.Context, employeeID, shiftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[shiftID]; !ok {
		return attendance.ErrShiftNotFound
	}
	m.shiftAssignments[employeeID] = shiftID
	return nil
}

func (m *Store) ShiftForEmployee(_ context.Context, employeeID string) (*attendance.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shiftID, ok := m.shiftAssignments[employeeID]
	if !ok {
		return nil, nil
	}
	s, ok := m.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	return cloneShift(s), nil
}

func cloneShift(s *attendance.Shift) *attendance.Shift {
	cp := *s
	cp.Days = make(map[time.Weekday]attendance.ScheduleEntry, len(s.Days))
	for k, v := range s.Days {
		cp.Days[k] = v
	}
	return &cp
}

func recordKey(employeeID string, date calendar.Date) string { return employeeID + "|" + date.String() }

func (m *Store) SaveRecord(_ context.Context, r *attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records[recordKey(r.EmployeeID, r.AttendanceDate)] = &cp
	return nil
}

func (m *Store) RecordFor(_ context.Context, employeeID string, date calendar.Date) (*attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[recordKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *Store) LatestRecord(_ context.Context, employeeID string) (*attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *attendance.Record
	for _, r := range m.records {
		if r.EmployeeID != employeeID {
			continue
		}
		if latest == nil || r.AttendanceDate.After(latest.AttendanceDate) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *Store) SaveActivity(_ context.Context, a *attendance.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	if a.ClockOut != nil {
		out := *a.ClockOut
		cp.ClockOut = &out
	}
	m.activities[a.ID] = &cp
	return nil
}

func (m *Store) OpenActivity(_ context.Context, employeeID string) (*attendance.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var open *attendance.Activity
	for _, a := range m.activities {
		if a.EmployeeID != employeeID || a.ClockOut != nil {
			continue
		}
		if open == nil || a.ClockIn.After(open.ClockIn) {
			open = a
		}
	}
	if open == nil {
		return nil, nil
	}
	cp := *open
	return &cp, nil
}

func (m *Store) ActivitiesFor(_ context.Context, employeeID string, date calendar.Date) ([]*attendance.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*attendance.Activity
	for _, a := range m.activities {
		if a.EmployeeID != employeeID || !a.AttendanceDate.Equal(date) {
			continue
		}
		cp := *a
		if a.ClockOut != nil {
			t := *a.ClockOut
			cp.ClockOut = &t
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}
