package timesheet

import (
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// CALENDAR GENERATOR - Canonical day skeleton for a month
// =============================================================================

// GenerateMonth returns one empty DayEntry per calendar day of year/month,
// ordered by date, with IsWeekend derived from the weekday.
// Fails with ErrInvalidPeriod for months outside 1-12 or years outside the range.
func GenerateMonth(year, month int, years generic.YearRange) ([]DayEntry, error) {
	period, err := generic.MonthPeriod(year, month, years)
	if err != nil {
		return nil, err
	}

	dates := period.Days()
	days := make([]DayEntry, len(dates))
	for i, d := range dates {
		days[i] = DayEntry{
			Date:         d,
			HoursWorked:  generic.ZeroHours,
			SupportHours: generic.ZeroHours,
			IsWeekend:    d.IsWeekend(),
		}
	}
	return days, nil
}

// CountWorkdays returns the number of non-weekend days in the skeleton.
func CountWorkdays(days []DayEntry) int {
	n := 0
	for _, d := range days {
		if !d.IsWeekend {
			n++
		}
	}
	return n
}
