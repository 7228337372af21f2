// Package timesheet implements the monthly timesheet lifecycle and
// reconciliation engine on top of the generic calendar primitives.
package timesheet

import (
	"fmt"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// ROLES AND ENTRY MODES
// =============================================================================

type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleEmployee       Role = "EMPLOYEE"
	RolePaymentManager Role = "PAYMENT_MANAGER"
	RoleSubcontractor  Role = "SUBCONTRACTOR"
)

type EntryMode string

const (
	ModeDetailed EntryMode = "DETAILED"
	ModeUpload   EntryMode = "UPLOAD"
	ModeNone     EntryMode = "NONE"
)

// =============================================================================
// STATUS AND EVENTS
// =============================================================================

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusPaid      Status = "PAID"
)

// IsEditable reports whether the owner may change entries in this status.
// A rejected month re-opens for editing.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

type Event string

const (
	EventSave    Event = "save"
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventPay     Event = "pay"
)

// ParseAdminEvent accepts only the events an administrator may trigger.
func ParseAdminEvent(s string) (Event, bool) {
	switch Event(s) {
	case EventApprove, EventReject, EventPay:
		return Event(s), true
	}
	return "", false
}

// =============================================================================
// ACTORS
// =============================================================================

// Caller is the authenticated actor, supplied by the session layer on every call.
type Caller struct {
	UserID   generic.UserID
	Username string
	Roles    []Role
}

// User is a directory record used for summaries.
type User struct {
	ID       generic.UserID
	Username string
	Email    string
	Roles    []Role
}

// =============================================================================
// DAY ENTRY - One calendar day in a month
// =============================================================================

type DayEntry struct {
	Date          generic.TimePoint
	HoursWorked   generic.Hours
	SupportHours  generic.Hours
	HolidayTypeID *generic.HolidayTypeID
	Notes         string

	// Derived; recomputed from Date, never taken from input.
	IsWeekend bool

	// Holiday is the calendar annotation for display. It never carries hours.
	Holiday *generic.Holiday
}

// HasData reports whether the day carries anything worth persisting.
func (d DayEntry) HasData() bool {
	return d.HoursWorked.IsPositive() ||
		d.SupportHours.IsPositive() ||
		d.HolidayTypeID != nil ||
		d.Notes != ""
}

// IsHolidayTagged is true for a user-tagged holiday or a calendar holiday.
func (d DayEntry) IsHolidayTagged() bool {
	return d.HolidayTypeID != nil || d.Holiday != nil
}

// =============================================================================
// MONTHLY TIMESHEET - Aggregate root for (user, year, month)
// =============================================================================

type Timesheet struct {
	UserID generic.UserID
	Year   int
	Month  int

	// Entries holds persisted days only; the month view is rebuilt on read.
	Entries []DayEntry

	Status    Status
	EntryMode EntryMode

	// UPLOAD mode only.
	TotalHoursReported *generic.Hours
	AttachmentRef      string

	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	PaidAt      *time.Time
	ReviewedBy  generic.UserID
	Comments    string

	// Version is the compare-and-swap token. Zero means never persisted.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key identifies the timesheet within a store.
type Key struct {
	UserID generic.UserID
	Year   int
	Month  int
}

func (t *Timesheet) Key() Key {
	return Key{UserID: t.UserID, Year: t.Year, Month: t.Month}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%04d-%02d", k.UserID, k.Year, k.Month)
}

// Clone returns a deep copy so a failed transition can't leak partial state.
func (t Timesheet) Clone() Timesheet {
	c := t
	c.Entries = append([]DayEntry(nil), t.Entries...)
	if t.TotalHoursReported != nil {
		h := *t.TotalHoursReported
		c.TotalHoursReported = &h
	}
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.ApprovedAt = cloneTime(t.ApprovedAt)
	c.PaidAt = cloneTime(t.PaidAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// =============================================================================
// AGGREGATE - Derived metrics, recomputed on every read
// =============================================================================

type Aggregate struct {
	TotalHours           generic.Hours
	StandardHours        generic.Hours
	WeekendHours         generic.Hours
	HolidayHours         generic.Hours
	OvertimeHours        generic.Hours
	SupportHours         generic.Hours
	FilledWorkdays       int
	TotalWorkdays        int
	CompletionPercentage float64
}

// IsComplete is true when every workday is filled.
func (a Aggregate) IsComplete() bool {
	return a.TotalWorkdays > 0 && a.FilledWorkdays == a.TotalWorkdays
}

// MonthView is what getMonth returns.
type MonthView struct {
	UserID    generic.UserID
	Year      int
	Month     int
	Days      []DayEntry
	Aggregate Aggregate
	Status    Status
	EntryMode EntryMode
	Timesheet Timesheet
}

// Summary is one row of the administrative monthly listing.
type Summary struct {
	UserID       generic.UserID
	Username     string
	Year         int
	Month        int
	Status       Status
	EntryMode    EntryMode
	Aggregate    Aggregate
	EntriesCount int
	IsAdmin      bool
}

// MonthName returns e.g. "March".
func (s Summary) MonthName() string { return time.Month(s.Month).String() }

// SummaryFilter narrows the administrative listing. Nil fields match everything.
type SummaryFilter struct {
	Year             *int
	Month            *int
	UsernameContains string
}
