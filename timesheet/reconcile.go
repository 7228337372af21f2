package timesheet

import (
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// ENTRY RECONCILER - Merge persisted entries and holidays onto the skeleton
// =============================================================================

// Reconcile builds the populated month view.
//
// Precedence, per date key:
//  1. a persisted entry replaces the skeleton day (hours, support, tag, notes)
//  2. a holiday record annotates the day for display; it never adds hours
//
// Persisted entries dated outside the skeleton's range fail with
// ErrDateOutOfRange. Holidays outside the range are ignored, since the
// resolver may answer with a wider window than asked for.
//
// The skeleton is not modified. Reconciling the same inputs twice gives the
// same output, and feeding the output back in as the skeleton is a no-op.
func Reconcile(skeleton []DayEntry, persisted []DayEntry, holidays []generic.Holiday) ([]DayEntry, error) {
	if len(skeleton) == 0 {
		return nil, nil
	}
	period := generic.Period{Start: skeleton[0].Date, End: skeleton[len(skeleton)-1].Date}

	byDate := make(map[string]DayEntry, len(persisted))
	for _, e := range persisted {
		if !period.Contains(e.Date) {
			return nil, &generic.DateOutOfRangeError{Date: e.Date, Period: period}
		}
		byDate[e.Date.Key()] = e
	}

	holidayByDate := make(map[string]generic.Holiday, len(holidays))
	for _, h := range holidays {
		if !period.Contains(h.Date) {
			continue
		}
		// First record wins so the resolver's ordering decides between duplicates.
		if _, seen := holidayByDate[h.Date.Key()]; !seen {
			holidayByDate[h.Date.Key()] = h
		}
	}

	out := make([]DayEntry, len(skeleton))
	for i, day := range skeleton {
		key := day.Date.Key()
		merged := DayEntry{
			Date:         day.Date,
			HoursWorked:  day.HoursWorked,
			SupportHours: day.SupportHours,
			Notes:        day.Notes,
			IsWeekend:    day.Date.IsWeekend(),
		}
		if day.HolidayTypeID != nil {
			id := *day.HolidayTypeID
			merged.HolidayTypeID = &id
		}

		if e, ok := byDate[key]; ok {
			merged.HoursWorked = e.HoursWorked
			merged.SupportHours = e.SupportHours
			merged.Notes = e.Notes
			merged.HolidayTypeID = nil
			if e.HolidayTypeID != nil {
				id := *e.HolidayTypeID
				merged.HolidayTypeID = &id
			}
		}

		if h, ok := holidayByDate[key]; ok {
			hc := h
			merged.Holiday = &hc
		}

		out[i] = merged
	}
	return out, nil
}

// Sparse keeps only the days worth persisting.
func Sparse(days []DayEntry) []DayEntry {
	var out []DayEntry
	for _, d := range days {
		if d.HasData() {
			e := d
			e.Holiday = nil
			out = append(out, e)
		}
	}
	return out
}
