package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// march2025Filled returns March 2025 with 8 hours on the first n workdays.
func march2025Filled(t *testing.T, n int) []timesheet.DayEntry {
	t.Helper()
	days := mustMonth(t, 2025, 3)
	filled := 0
	for i := range days {
		if days[i].IsWeekend || filled == n {
			continue
		}
		days[i].HoursWorked = hours(8)
		filled++
	}
	require.Equal(t, n, filled)
	return days
}

func TestAggregate_March2025_PartiallyFilled(t *testing.T) {
	// GIVEN: March 2025 (21 workdays) with 20 workdays at 8 hours
	// WHEN: Aggregating
	// THEN: 160 standard hours, no weekend hours, 20/21 filled, ~95.24% complete

	agg := timesheet.Aggregator{}.Compute(march2025Filled(t, 20))

	assert.Equal(t, "160", agg.TotalHours.String())
	assert.Equal(t, "160", agg.StandardHours.String())
	assert.True(t, agg.WeekendHours.IsZero())
	assert.True(t, agg.OvertimeHours.IsZero())
	assert.Equal(t, 20, agg.FilledWorkdays)
	assert.Equal(t, 21, agg.TotalWorkdays)
	assert.InDelta(t, 95.24, agg.CompletionPercentage, 0.01)
	assert.False(t, agg.IsComplete())
}

func TestAggregate_FullMonthIsComplete(t *testing.T) {
	agg := timesheet.Aggregator{}.Compute(march2025Filled(t, 21))
	assert.Equal(t, float64(100), agg.CompletionPercentage)
	assert.True(t, agg.IsComplete())
}

func TestAggregate_WeekendAndHolidayHours(t *testing.T) {
	// GIVEN: 5 hours on Saturday 1 March and a tagged leave day on the 3rd
	// THEN: The weekend hours are counted separately and the tagged day counts as filled

	days := mustMonth(t, 2025, 3)
	days[0].HoursWorked = hours(5) // Saturday
	days[2].HolidayTypeID = typeID(3)
	days[3].HoursWorked = hours(4)
	days[3].Holiday = &generic.Holiday{Name: "calendar"}

	agg := timesheet.Aggregator{}.Compute(days)

	assert.Equal(t, "9", agg.TotalHours.String())
	assert.Equal(t, "5", agg.WeekendHours.String())
	assert.Equal(t, "4", agg.StandardHours.String())
	assert.Equal(t, "4", agg.HolidayHours.String())
	assert.Equal(t, 2, agg.FilledWorkdays)
}

func TestAggregate_CalendarHolidayAloneIsNotFilled(t *testing.T) {
	// GIVEN: A month whose only annotation is a resolver holiday on a workday
	// THEN: Nothing is filled, and the submit check rejects the same month

	days := mustMonth(t, 2025, 3)
	days[2].Holiday = &generic.Holiday{Name: "calendar"}

	agg := timesheet.Aggregator{}.Compute(days)
	assert.Equal(t, 0, agg.FilledWorkdays)
	assert.Equal(t, float64(0), agg.CompletionPercentage)

	ts := timesheet.Timesheet{UserID: "u1", Year: 2025, Month: 3, Status: timesheet.StatusDraft, EntryMode: timesheet.ModeDetailed}
	err := timesheet.NewLifecycle().CheckContent(ts, timesheet.Transition{Event: timesheet.EventSubmit})
	assert.ErrorIs(t, err, generic.ErrValidationFailed)

	// A stored leave tag on the same day fills it and makes the month submittable.
	days[2].HolidayTypeID = typeID(3)
	ts.Entries = []timesheet.DayEntry{{Date: days[2].Date, HolidayTypeID: typeID(3)}}
	assert.Equal(t, 1, timesheet.Aggregator{}.Compute(days).FilledWorkdays)
	assert.NoError(t, timesheet.NewLifecycle().CheckContent(ts, timesheet.Transition{Event: timesheet.EventSubmit}))
}

func TestAggregate_OvertimeSplit(t *testing.T) {
	// GIVEN: A threshold of 8 and a 10 hour workday
	// THEN: 8 standard and 2 overtime; total is the sum

	days := mustMonth(t, 2025, 3)
	days[2].HoursWorked = hours(10)

	agg := timesheet.Aggregator{OvertimeThreshold: generic.NewHoursFromInt(8)}.Compute(days)

	assert.Equal(t, "8", agg.StandardHours.String())
	assert.Equal(t, "2", agg.OvertimeHours.String())
	assert.Equal(t, "10", agg.TotalHours.String())
}

func TestAggregate_NoWorkdaysYieldsZeroCompletion(t *testing.T) {
	// A weekend-only slice has no workdays; completion must not divide by zero.
	weekend := []timesheet.DayEntry{
		{Date: date(2025, time.March, 1), HoursWorked: hours(3), IsWeekend: true},
		{Date: date(2025, time.March, 2), IsWeekend: true},
	}
	agg := timesheet.Aggregator{}.Compute(weekend)

	assert.Equal(t, 0, agg.TotalWorkdays)
	assert.Equal(t, float64(0), agg.CompletionPercentage)
	assert.False(t, agg.IsComplete())
}

func TestAggregate_SupportHoursTrackedSeparately(t *testing.T) {
	days := mustMonth(t, 2025, 3)
	days[2].HoursWorked = hours(8)
	days[2].SupportHours = hours(1.5)

	agg := timesheet.Aggregator{}.Compute(days)
	assert.Equal(t, "8", agg.TotalHours.String())
	assert.Equal(t, "1.5", agg.SupportHours.String())
}

func TestAggregate_UploadMode(t *testing.T) {
	// GIVEN: An UPLOAD timesheet with a declared 168 hours and a document
	// THEN: Totals come from the declaration and the month is complete

	days := mustMonth(t, 2025, 3)
	declared := generic.NewHoursFromInt(168)
	ts := timesheet.Timesheet{EntryMode: timesheet.ModeUpload, TotalHoursReported: &declared, AttachmentRef: "u1/2025-03/x.pdf"}

	agg := timesheet.Aggregator{}.ComputeFor(days, ts)
	assert.Equal(t, "168", agg.TotalHours.String())
	assert.True(t, agg.IsComplete())

	ts.AttachmentRef = ""
	agg = timesheet.Aggregator{}.ComputeFor(days, ts)
	assert.Equal(t, 0, agg.FilledWorkdays)
	assert.Equal(t, 21, agg.TotalWorkdays)
}
