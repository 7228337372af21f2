package generic_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// HOURS
// =============================================================================

func TestHours_DecimalArithmeticIsExact(t *testing.T) {
	// GIVEN: 31 days of 7.3 hours
	// WHEN: Summing them
	// THEN: The total is exactly 226.3, with no float drift

	total := generic.ZeroHours
	for i := 0; i < 31; i++ {
		total = total.Add(generic.NewHours(7.3))
	}
	assert.Equal(t, "226.3", total.String())
}

func TestHours_WithinTolerance(t *testing.T) {
	expected := generic.NewHoursFromInt(160)
	tol := generic.NewHours(0.01)

	assert.True(t, generic.NewHours(160.01).WithinTolerance(expected, tol))
	assert.True(t, generic.NewHours(159.99).WithinTolerance(expected, tol))
	assert.False(t, generic.NewHours(160.02).WithinTolerance(expected, tol))
}

func TestHours_ParseRejectsGarbage(t *testing.T) {
	_, err := generic.ParseHours("eight")
	assert.Error(t, err)

	h, err := generic.ParseHours("7.25")
	require.NoError(t, err)
	assert.Equal(t, "7.25", h.String())
}

// =============================================================================
// PERIODS
// =============================================================================

func TestMonthPeriod_Boundaries(t *testing.T) {
	tests := []struct {
		year, month int
		wantDays    int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d", tt.year, tt.month), func(t *testing.T) {
			p, err := generic.MonthPeriod(tt.year, tt.month, generic.DefaultYearRange)
			require.NoError(t, err)
			assert.Len(t, p.Days(), tt.wantDays)
			assert.Equal(t, 1, p.Start.Day())
			assert.Equal(t, tt.wantDays, p.End.Day())
		})
	}
}

func TestMonthPeriod_RejectsOutOfRange(t *testing.T) {
	// GIVEN: Month 13, month 0, and years outside [2000, 2100]
	// THEN: Every one is an InvalidPeriodError that matches ErrInvalidPeriod

	cases := [][2]int{{2025, 13}, {2025, 0}, {1999, 6}, {2101, 1}}
	for _, c := range cases {
		_, err := generic.MonthPeriod(c[0], c[1], generic.DefaultYearRange)
		assert.ErrorIs(t, err, generic.ErrInvalidPeriod, "%d-%d", c[0], c[1])

		var perr *generic.InvalidPeriodError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, c[0], perr.Year)
		assert.Equal(t, c[1], perr.Month)
	}
}

func TestPeriod_ValidateReversed(t *testing.T) {
	p := generic.Period{
		Start: generic.NewTimePoint(2025, time.March, 10),
		End:   generic.NewTimePoint(2025, time.March, 1),
	}
	assert.ErrorIs(t, p.Validate(), generic.ErrInvalidPeriod)
}

func TestTimePoint_DayGranularity(t *testing.T) {
	a := generic.DayOf(time.Date(2025, 3, 8, 23, 59, 0, 0, time.UTC))
	b := generic.NewTimePoint(2025, time.March, 8)

	assert.True(t, a.Equal(b))
	assert.True(t, a.IsWeekend(), "2025-03-08 is a Saturday")
	assert.Equal(t, "2025-03-09", a.AddDays(1).Key())
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

func TestErrors_Classification(t *testing.T) {
	date := generic.NewTimePoint(2025, time.March, 3)
	tests := []struct {
		name     string
		err      error
		sentinel error
		client   bool
		retry    bool
	}{
		{"invalid period", &generic.InvalidPeriodError{Year: 2025, Month: 13}, generic.ErrInvalidPeriod, true, false},
		{"out of range", &generic.DateOutOfRangeError{Date: date}, generic.ErrDateOutOfRange, true, false},
		{"validation", &generic.ValidationError{Field: "hoursWorked", Date: &date}, generic.ErrValidationFailed, true, false},
		{"forbidden", &generic.ForbiddenError{Actor: "u1", Action: "approve"}, generic.ErrForbidden, false, false},
		{"transition", &generic.TransitionError{From: "DRAFT", Event: "approve"}, generic.ErrInvalidTransition, false, false},
		{"repeat", &generic.TransitionError{From: "PAID", Event: "pay", Conflict: true}, generic.ErrConflict, false, false},
		{"cas", &generic.VersionConflictError{Key: "k", Expected: 1, Actual: 2}, generic.ErrConflict, false, false},
		{"upstream", &generic.UpstreamError{Op: "load", Err: errors.New("db down")}, generic.ErrUpstreamUnavailable, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.client, generic.IsClientError(tt.err))
			assert.Equal(t, tt.retry, generic.IsRetryable(tt.err))
		})
	}
}

func TestErrors_RepeatIsNotInvalidTransition(t *testing.T) {
	err := &generic.TransitionError{From: "PAID", Event: "pay", Conflict: true}
	assert.NotErrorIs(t, err, generic.ErrInvalidTransition)
}

func TestUpstream_PassesThroughClassifiedErrors(t *testing.T) {
	// GIVEN: A store returning a CAS conflict
	// WHEN: The service wraps it as an upstream call
	// THEN: It stays a conflict, not an UpstreamUnavailable

	conflict := &generic.VersionConflictError{Key: "k", Expected: 1, Actual: 2}
	assert.Same(t, error(conflict), generic.Upstream("save", conflict))

	raw := errors.New("disk I/O error")
	wrapped := generic.Upstream("save", raw)
	assert.ErrorIs(t, wrapped, generic.ErrUpstreamUnavailable)
	assert.ErrorIs(t, wrapped, raw)

	assert.NoError(t, generic.Upstream("save", nil))
}

func TestUpstream_DeadlineIsRetryable(t *testing.T) {
	err := generic.Upstream("holidays", context.DeadlineExceeded)
	assert.True(t, generic.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// =============================================================================
// AUDIT FILTER
// =============================================================================

func TestAuditFilter_Matches(t *testing.T) {
	user := generic.UserID("u1")
	year, month := 2025, 3
	entry := generic.AuditEntry{UserID: user, ActorID: "admin", Year: 2025, Month: 3, Action: generic.AuditApproved}

	assert.True(t, generic.AuditFilter{}.Matches(entry))
	assert.True(t, generic.AuditFilter{UserID: &user, Year: &year, Month: &month}.Matches(entry))
	assert.True(t, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditApproved}}.Matches(entry))
	assert.False(t, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditPaid}}.Matches(entry))

	other := generic.UserID("u2")
	assert.False(t, generic.AuditFilter{UserID: &other}.Matches(entry))
}
