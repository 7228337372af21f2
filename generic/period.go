package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// MONTH PERIOD - The unit every timesheet covers
// =============================================================================

// YearRange bounds the years a month period may be built for.
type YearRange struct {
	Min int
	Max int
}

// DefaultYearRange is used when no configured range is supplied.
var DefaultYearRange = YearRange{Min: 2000, Max: 2100}

func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// MonthPeriod returns the period covering every day of year/month.
func MonthPeriod(year, month int, years YearRange) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, &InvalidPeriodError{Year: year, Month: month, Reason: "month must be between 1 and 12"}
	}
	if !years.Contains(year) {
		return Period{}, &InvalidPeriodError{
			Year:   year,
			Month:  month,
			Reason: fmt.Sprintf("year must be between %d and %d", years.Min, years.Max),
		}
	}
	m := time.Month(month)
	return Period{Start: StartOfMonth(year, m), End: EndOfMonth(year, m)}, nil
}
