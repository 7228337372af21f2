// Package memory provides map-backed implementations of the timesheet
// collaborator interfaces, for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	timesheets   map[timesheet.Key]timesheet.Timesheet
	users        map[generic.UserID]timesheet.User
	holidays     map[string]generic.Holiday // keyed by date + name
	holidayTypes []generic.HolidayType
	audit        []generic.AuditEntry

	// Now stamps CreatedAt/UpdatedAt and audit entries lacking a time.
	Now func() time.Time
}

func New() *Memory {
	return &Memory{
		timesheets: make(map[timesheet.Key]timesheet.Timesheet),
		users:      make(map[generic.UserID]timesheet.User),
		holidays:   make(map[string]generic.Holiday),
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// TIMESHEETS (timesheet.Store)
// =============================================================================

func (m *Memory) LoadTimesheet(_ context.Context, key timesheet.Key) (*timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ts, ok := m.timesheets[key]
	if !ok {
		return nil, nil
	}
	c := ts.Clone()
	return &c, nil
}

// SaveTimesheet commits ts and its audit entry atomically when the stored
// version still equals expected.
func (m *Memory) SaveTimesheet(ctx context.Context, ts timesheet.Timesheet, expected int, audit *generic.AuditEntry) (timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return timesheet.Timesheet{}, err
	}

	key := ts.Key()
	actual := 0
	cur, exists := m.timesheets[key]
	if exists {
		actual = cur.Version
	}
	if actual != expected {
		return timesheet.Timesheet{}, &generic.VersionConflictError{Key: key.String(), Expected: expected, Actual: actual}
	}

	now := m.Now()
	stored := ts.Clone()
	stored.Version = expected + 1
	if exists {
		stored.CreatedAt = cur.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.timesheets[key] = stored

	if audit != nil {
		m.appendAuditLocked(*audit)
	}
	return stored.Clone(), nil
}

func (m *Memory) ListTimesheets(_ context.Context, filter timesheet.ListFilter) ([]timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []timesheet.Timesheet
	for _, ts := range m.timesheets {
		if filter.Matches(ts) {
			out = append(out, ts.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out, nil
}

// =============================================================================
// USERS (timesheet.UserDirectory)
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u timesheet.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Roles = append([]timesheet.Role(nil), u.Roles...)
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id generic.UserID) (*timesheet.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]timesheet.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]timesheet.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// =============================================================================
// HOLIDAYS (holidays.Repository, timesheet.HolidayTypeCatalog)
// =============================================================================

func (m *Memory) UpsertHoliday(_ context.Context, h generic.Holiday) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := h.Date.Key() + "|" + h.Name
	_, exists := m.holidays[k]
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[k] = h
	return !exists, nil
}

func (m *Memory) HolidaysInRange(ctx context.Context, from, to generic.TimePoint) ([]generic.Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	period := generic.Period{Start: from, End: to}
	var out []generic.Holiday
	for _, h := range m.holidays {
		if period.Contains(h.Date) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SeedHolidayTypes replaces the catalog, assigning sequential IDs from 1.
func (m *Memory) SeedHolidayTypes(types []generic.HolidayType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidayTypes = make([]generic.HolidayType, len(types))
	for i, t := range types {
		t.ID = generic.HolidayTypeID(i + 1)
		m.holidayTypes[i] = t
	}
}

func (m *Memory) ListHolidayTypes(_ context.Context) ([]generic.HolidayType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.HolidayType(nil), m.holidayTypes...), nil
}

// =============================================================================
// AUDIT LOG (generic.AuditLog)
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, e generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendAuditLocked(e)
	return nil
}

func (m *Memory) appendAuditLocked(e generic.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = m.Now()
	}
	m.audit = append(m.audit, e)
}

func (m *Memory) QueryAudit(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.AuditEntry
	for _, e := range m.audit {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
