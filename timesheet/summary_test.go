package timesheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func summary(user, name string, year, month int) timesheet.Summary {
	return timesheet.Summary{UserID: generic.UserID(user), Username: name, Year: year, Month: month, Status: timesheet.StatusSubmitted}
}

func intp(v int) *int { return &v }

// =============================================================================
// MONTHLY SUMMARY INDEX
// =============================================================================

func TestBuildIndex_KeepsLatestPerUser(t *testing.T) {
	// GIVEN: One user with February and March 2025
	// WHEN: Building the index
	// THEN: Only March remains

	rows := timesheet.BuildIndex([]timesheet.Summary{
		summary("u1", "erik", 2025, 2),
		summary("u1", "erik", 2025, 3),
	}, timesheet.SummaryFilter{})

	require.Len(t, rows, 1)
	assert.Equal(t, 2025, rows[0].Year)
	assert.Equal(t, 3, rows[0].Month)
}

func TestBuildIndex_LatestAcrossYears(t *testing.T) {
	rows := timesheet.BuildIndex([]timesheet.Summary{
		summary("u1", "erik", 2025, 1),
		summary("u1", "erik", 2024, 12),
	}, timesheet.SummaryFilter{})
	require.Len(t, rows, 1)
	assert.Equal(t, 2025, rows[0].Year)
}

func TestBuildIndex_DropsAdmins(t *testing.T) {
	adm := summary("a1", "anna", 2025, 3)
	adm.IsAdmin = true

	rows := timesheet.BuildIndex([]timesheet.Summary{adm, summary("u1", "erik", 2025, 3)}, timesheet.SummaryFilter{})
	require.Len(t, rows, 1)
	assert.Equal(t, "erik", rows[0].Username)
}

func TestBuildIndex_FiltersAfterLatest(t *testing.T) {
	// GIVEN: erik has Feb and Mar; the filter asks for Feb
	// THEN: erik is absent, since his latest month is March

	rows := timesheet.BuildIndex([]timesheet.Summary{
		summary("u1", "erik", 2025, 2),
		summary("u1", "erik", 2025, 3),
		summary("u2", "karin", 2025, 2),
	}, timesheet.SummaryFilter{Month: intp(2)})

	require.Len(t, rows, 1)
	assert.Equal(t, "karin", rows[0].Username)
}

func TestBuildIndex_UsernameSubstringCaseInsensitive(t *testing.T) {
	rows := timesheet.BuildIndex([]timesheet.Summary{
		summary("u1", "Erik.Svensson", 2025, 3),
		summary("u2", "karin", 2025, 3),
	}, timesheet.SummaryFilter{UsernameContains: "SVEN", Year: intp(2025)})

	require.Len(t, rows, 1)
	assert.Equal(t, "Erik.Svensson", rows[0].Username)
}

func TestBuildIndex_SortOrder(t *testing.T) {
	// THEN: year desc, month desc, username asc regardless of input order

	rows := timesheet.BuildIndex([]timesheet.Summary{
		summary("u3", "cecilia", 2025, 2),
		summary("u2", "bo", 2025, 3),
		summary("u4", "dan", 2024, 12),
		summary("u1", "alva", 2025, 3),
	}, timesheet.SummaryFilter{})

	var got []string
	for _, r := range rows {
		got = append(got, r.Username)
	}
	assert.Equal(t, []string{"alva", "bo", "cecilia", "dan"}, got)
}

func TestBuildIndex_Empty(t *testing.T) {
	assert.Empty(t, timesheet.BuildIndex(nil, timesheet.SummaryFilter{}))
}
