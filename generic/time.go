package generic

import (
	"context"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day in UTC
// =============================================================================

// TimePoint is a calendar day. Timesheets never need sub-day precision, so
// every TimePoint is normalized to midnight UTC.
type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an arbitrary time to its calendar day.
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return DayOf(tp.Time.AddDate(0, 0, n)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool       { return tp.Weekday() == time.Saturday || tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

// Key is the canonical map key for a day: the date string.
func (tp TimePoint) Key() string { return tp.normalize().Format(DateLayout) }

func (tp TimePoint) String() string { return tp.Key() }

// =============================================================================
// HOLIDAY CALENDAR - Government and company holidays
// =============================================================================

// Holiday is a dated holiday record owned by the holiday calendar.
// The timesheet core only reads these.
type Holiday struct {
	ID           string
	Date         TimePoint
	Name         string
	IsGovernment bool
	TypeID       *HolidayTypeID // optional link into the holiday type catalog
}

// HolidayResolver returns holidays within [from, to].
// Implementations are expected to respect ctx deadlines.
type HolidayResolver interface {
	HolidaysInRange(ctx context.Context, from, to TimePoint) ([]Holiday, error)
}

// NoHolidays is a resolver for when holidays are disabled.
type NoHolidays struct{}

func (NoHolidays) HolidaysInRange(context.Context, TimePoint, TimePoint) ([]Holiday, error) {
	return nil, nil
}

// HolidayType is an entry in the holiday/leave catalog a day can be tagged with.
type HolidayType struct {
	ID           HolidayTypeID
	Name         string
	Description  string
	IsGovernment bool
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

func EndOfMonth(year int, month time.Month) TimePoint {
	return DayOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// DaysInMonth returns 28..31, accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}
