// Package holidays provides the default holiday calendar and the holiday type
// catalog the engine is seeded with.
package holidays

import (
	"sort"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SWEDISH PUBLIC HOLIDAYS
// =============================================================================

// Swedish returns the public holidays for year, ordered by date.
// Movable feasts are derived from Easter Sunday; Midsummer and All Saints
// fall on the Saturday within their fixed windows.
func Swedish(year int) []generic.Holiday {
	easter := EasterSunday(year)
	fixed := func(m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(year, m, d) }

	days := []struct {
		date generic.TimePoint
		name string
	}{
		{fixed(time.January, 1), "New Year's Day"},
		{fixed(time.January, 6), "Epiphany"},
		{easter.AddDays(-2), "Good Friday"},
		{easter, "Easter Sunday"},
		{easter.AddDays(1), "Easter Monday"},
		{fixed(time.May, 1), "Labor Day"},
		{easter.AddDays(39), "Ascension Day"},
		{easter.AddDays(49), "Whit Sunday"},
		{fixed(time.June, 6), "National Day of Sweden"},
		{saturdayFrom(fixed(time.June, 20)).AddDays(-1), "Midsummer Eve"},
		{saturdayFrom(fixed(time.June, 20)), "Midsummer Day"},
		{saturdayFrom(fixed(time.October, 31)), "All Saints' Day"},
		{fixed(time.December, 24), "Christmas Eve"},
		{fixed(time.December, 25), "Christmas Day"},
		{fixed(time.December, 26), "Boxing Day"},
		{fixed(time.December, 31), "New Year's Eve"},
	}

	out := make([]generic.Holiday, 0, len(days))
	for _, d := range days {
		out = append(out, generic.Holiday{
			ID:           "se-" + d.date.Key(),
			Date:         d.date,
			Name:         d.name,
			IsGovernment: true,
		})
	}
	sortByDate(out)
	return out
}

// saturdayFrom returns the first Saturday on or after tp.
func saturdayFrom(tp generic.TimePoint) generic.TimePoint {
	offset := (int(time.Saturday) - int(tp.Weekday()) + 7) % 7
	return tp.AddDays(offset)
}

// EasterSunday computes the Gregorian Easter date (anonymous algorithm).
func EasterSunday(year int) generic.TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

func sortByDate(hs []generic.Holiday) {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
}

// =============================================================================
// HOLIDAY TYPE CATALOG
// =============================================================================

// DefaultTypes is the catalog a fresh database is seeded with. IDs are assigned
// by the store.
func DefaultTypes() []generic.HolidayType {
	return []generic.HolidayType{
		{Name: "Sjukledighet", Description: "Sick leave", IsGovernment: true},
		{Name: "Föräldraledighet", Description: "Parental leave", IsGovernment: true},
		{Name: "Semester", Description: "Vacation", IsGovernment: true},
		{Name: "VAB (Vård av barn)", Description: "Care of child", IsGovernment: true},
		{Name: "Tjänstledighet", Description: "Leave of absence", IsGovernment: true},
		{Name: "Studieledighet", Description: "Study leave", IsGovernment: true},
		{Name: "Work from home", Description: "Remote work day", IsGovernment: false},
		{Name: "Conference", Description: "Attending a conference", IsGovernment: false},
		{Name: "Training", Description: "Training/education day", IsGovernment: false},
	}
}
