package timesheet

import (
	"math"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// AGGREGATOR - Derived metrics over a populated month view
// =============================================================================

// Aggregator computes MonthlyAggregate values.
//
// OvertimeThreshold is the per-day hour count above which workday hours are
// classified as overtime. Zero disables the split, in which case every
// workday hour is a standard hour.
type Aggregator struct {
	OvertimeThreshold generic.Hours
}

// Compute aggregates a DETAILED month view.
//
//	standard   = workday hours (capped at the threshold per day when enabled)
//	overtime   = workday hours above the threshold
//	weekend    = hours on Saturday/Sunday
//	holiday    = hours on days carrying a holiday tag or calendar holiday
//	completion = filled workdays / workdays * 100, 0 when there are no workdays
//
// A workday is filled by positive hours or a stored leave tag. A calendar
// holiday alone does not fill it, so completion agrees with the submit check.
//
// Inputs are assumed validated at the write boundary; negative hours are
// clamped to zero here rather than subtracted.
func (a Aggregator) Compute(days []DayEntry) Aggregate {
	agg := Aggregate{
		TotalHours:    generic.ZeroHours,
		StandardHours: generic.ZeroHours,
		WeekendHours:  generic.ZeroHours,
		HolidayHours:  generic.ZeroHours,
		OvertimeHours: generic.ZeroHours,
		SupportHours:  generic.ZeroHours,
	}
	overtimeEnabled := a.OvertimeThreshold.IsPositive()

	for _, d := range days {
		hours := d.HoursWorked.Max(generic.ZeroHours)
		agg.TotalHours = agg.TotalHours.Add(hours)
		agg.SupportHours = agg.SupportHours.Add(d.SupportHours.Max(generic.ZeroHours))

		if d.IsHolidayTagged() {
			agg.HolidayHours = agg.HolidayHours.Add(hours)
		}

		if d.IsWeekend {
			agg.WeekendHours = agg.WeekendHours.Add(hours)
			continue
		}

		agg.TotalWorkdays++
		if hours.IsPositive() || d.HolidayTypeID != nil {
			agg.FilledWorkdays++
		}

		if overtimeEnabled && hours.GreaterThan(a.OvertimeThreshold) {
			agg.StandardHours = agg.StandardHours.Add(a.OvertimeThreshold)
			agg.OvertimeHours = agg.OvertimeHours.Add(hours.Sub(a.OvertimeThreshold))
		} else {
			agg.StandardHours = agg.StandardHours.Add(hours)
		}
	}

	agg.CompletionPercentage = completion(agg.FilledWorkdays, agg.TotalWorkdays)
	return agg
}

// ComputeUpload aggregates an UPLOAD-mode timesheet: the declared total stands
// in for per-day detail, and the month counts as complete once a document and
// a positive total are both on file.
func (a Aggregator) ComputeUpload(days []DayEntry, ts Timesheet) Aggregate {
	agg := Aggregate{
		TotalHours:    generic.ZeroHours,
		StandardHours: generic.ZeroHours,
		WeekendHours:  generic.ZeroHours,
		HolidayHours:  generic.ZeroHours,
		OvertimeHours: generic.ZeroHours,
		SupportHours:  generic.ZeroHours,
		TotalWorkdays: CountWorkdays(days),
	}
	if ts.TotalHoursReported != nil {
		agg.TotalHours = ts.TotalHoursReported.Max(generic.ZeroHours)
		agg.StandardHours = agg.TotalHours
	}
	if ts.AttachmentRef != "" && agg.TotalHours.IsPositive() {
		agg.FilledWorkdays = agg.TotalWorkdays
	}
	agg.CompletionPercentage = completion(agg.FilledWorkdays, agg.TotalWorkdays)
	return agg
}

// ComputeFor dispatches on the timesheet's entry mode.
func (a Aggregator) ComputeFor(days []DayEntry, ts Timesheet) Aggregate {
	if ts.EntryMode == ModeUpload {
		return a.ComputeUpload(days, ts)
	}
	return a.Compute(days)
}

func completion(filled, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(filled) / float64(total) * 100
	return math.Max(0, math.Min(100, pct))
}
