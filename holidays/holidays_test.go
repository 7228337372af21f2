package holidays_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/holidays"
	"github.com/warp/timesheet-engine/store/memory"
)

func TestEasterSunday(t *testing.T) {
	tests := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
		2038: "2038-04-25",
	}
	for year, want := range tests {
		assert.Equal(t, want, holidays.EasterSunday(year).Key(), "year %d", year)
	}
}

func TestSwedish_2025(t *testing.T) {
	// GIVEN: The 2025 calendar
	// THEN: Movable feasts land on their known dates, and the list is sorted

	byName := make(map[string]string)
	hs := holidays.Swedish(2025)
	for i, h := range hs {
		byName[h.Name] = h.Date.Key()
		assert.True(t, h.IsGovernment)
		assert.Equal(t, "se-"+h.Date.Key(), h.ID)
		if i > 0 {
			assert.False(t, h.Date.Before(hs[i-1].Date), "sorted at %s", h.Date)
		}
	}

	assert.Equal(t, "2025-04-18", byName["Good Friday"])
	assert.Equal(t, "2025-04-21", byName["Easter Monday"])
	assert.Equal(t, "2025-05-29", byName["Ascension Day"])
	assert.Equal(t, "2025-06-08", byName["Whit Sunday"])
	assert.Equal(t, "2025-06-20", byName["Midsummer Eve"])
	assert.Equal(t, "2025-06-21", byName["Midsummer Day"])
	assert.Equal(t, "2025-11-01", byName["All Saints' Day"])
	assert.Equal(t, "2025-12-25", byName["Christmas Day"])
}

func TestSwedish_MidsummerIsAlwaysSaturday(t *testing.T) {
	for year := 2020; year <= 2035; year++ {
		for _, h := range holidays.Swedish(year) {
			switch h.Name {
			case "Midsummer Day", "All Saints' Day":
				assert.Equal(t, time.Saturday, h.Date.Weekday(), "%s %d", h.Name, year)
			case "Midsummer Eve":
				assert.Equal(t, time.Friday, h.Date.Weekday(), "%s %d", h.Name, year)
			}
		}
	}
}

func TestDefaultTypes(t *testing.T) {
	types := holidays.DefaultTypes()
	require.Len(t, types, 9)
	assert.Equal(t, "Sjukledighet", types[0].Name)
	assert.False(t, types[len(types)-1].IsGovernment)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendar_SeedDefaultsIsIdempotent(t *testing.T) {
	// GIVEN: An empty repository
	// WHEN: Seeding 2025 twice
	// THEN: The first run adds every holiday, the second adds none

	store := memory.New()
	cal := holidays.NewCalendar(store, zap.NewNop())
	ctx := context.Background()

	added, err := cal.SeedDefaults(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, len(holidays.Swedish(2025)), added)

	added, err = cal.SeedDefaults(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	june, err := cal.HolidaysInRange(ctx, generic.NewTimePoint(2025, time.June, 1), generic.NewTimePoint(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, june, 4) // National Day, Whit Sunday, Midsummer Eve and Day
	assert.Equal(t, "National Day of Sweden", june[0].Name)
}

type brokenRepo struct{ memory.Memory }

func (*brokenRepo) UpsertHoliday(context.Context, generic.Holiday) (bool, error) {
	return false, errors.New("read-only database")
}

func TestCalendar_SeedDefaultsReportsStoreErrors(t *testing.T) {
	cal := holidays.NewCalendar(&brokenRepo{}, nil)
	_, err := cal.SeedDefaults(context.Background(), 2025)
	assert.ErrorContains(t, err, "read-only database")
}
