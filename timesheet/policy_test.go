package timesheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timesheet-engine/timesheet"
)

func TestEntryModeFor(t *testing.T) {
	tests := []struct {
		name  string
		roles []timesheet.Role
		want  timesheet.EntryMode
	}{
		{"employee", []timesheet.Role{timesheet.RoleEmployee}, timesheet.ModeDetailed},
		{"admin", []timesheet.Role{timesheet.RoleAdmin}, timesheet.ModeDetailed},
		{"payment manager", []timesheet.Role{timesheet.RolePaymentManager}, timesheet.ModeUpload},
		{"subcontractor", []timesheet.Role{timesheet.RoleSubcontractor}, timesheet.ModeUpload},
		{"upload wins", []timesheet.Role{timesheet.RoleEmployee, timesheet.RoleSubcontractor}, timesheet.ModeUpload},
		{"none", nil, timesheet.ModeNone},
		{"unknown only", []timesheet.Role{"AUDITOR"}, timesheet.ModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timesheet.EntryModeFor(tt.roles))
			assert.Equal(t, tt.want != timesheet.ModeNone, timesheet.CanKeepTimesheet(tt.roles))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, timesheet.IsAdmin([]timesheet.Role{timesheet.RoleEmployee, timesheet.RoleAdmin}))
	assert.False(t, timesheet.IsAdmin([]timesheet.Role{timesheet.RolePaymentManager}))
	assert.False(t, timesheet.IsAdmin(nil))
}

func TestParseRoles_AcceptsLegacyNames(t *testing.T) {
	// GIVEN: Session roles in both legacy and canonical spellings plus junk
	// THEN: Known names map onto roles and the rest is dropped

	roles := timesheet.ParseRoles([]string{"ROLE_USER_EMP", "user_pay", " ADMIN ", "ROLE_SOMETHING"})
	assert.Equal(t, []timesheet.Role{timesheet.RoleEmployee, timesheet.RolePaymentManager, timesheet.RoleAdmin}, roles)
}

func TestParseAdminEvent(t *testing.T) {
	for _, s := range []string{"approve", "reject", "pay"} {
		e, ok := timesheet.ParseAdminEvent(s)
		assert.True(t, ok, s)
		assert.Equal(t, timesheet.Event(s), e)
	}
	for _, s := range []string{"submit", "save", "APPROVE", ""} {
		_, ok := timesheet.ParseAdminEvent(s)
		assert.False(t, ok, s)
	}
}
