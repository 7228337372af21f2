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
// TEST HELPERS
// =============================================================================

var (
	employee = timesheet.Caller{UserID: "emp-1", Username: "erik", Roles: []timesheet.Role{timesheet.RoleEmployee}}
	admin    = timesheet.Caller{UserID: "adm-1", Username: "anna", Roles: []timesheet.Role{timesheet.RoleAdmin}}
	nobody   = timesheet.Caller{UserID: "x-1", Username: "x", Roles: nil}
)

var fixedNow = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

func newLifecycle() *timesheet.Lifecycle {
	return &timesheet.Lifecycle{Now: func() time.Time { return fixedNow }}
}

func sheet(status timesheet.Status) timesheet.Timesheet {
	return timesheet.Timesheet{
		UserID:    employee.UserID,
		Year:      2025,
		Month:     3,
		Status:    status,
		EntryMode: timesheet.ModeDetailed,
		Entries:   []timesheet.DayEntry{entry(date(2025, time.March, 3), 8)},
		Version:   1,
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestLifecycle_FullHappyPath(t *testing.T) {
	// GIVEN: A DRAFT with hours
	// WHEN: submit -> approve -> pay
	// THEN: Each step advances status and stamps its timestamp

	lc := newLifecycle()
	ts := sheet(timesheet.StatusDraft)

	ts, audit, err := lc.Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: employee})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusSubmitted, ts.Status)
	require.NotNil(t, ts.SubmittedAt)
	assert.Equal(t, generic.AuditSubmitted, audit.Action)
	assert.Equal(t, "DRAFT", audit.From)
	assert.Equal(t, "SUBMITTED", audit.To)

	ts, _, err = lc.Apply(ts, timesheet.Transition{Event: timesheet.EventApprove, Actor: admin, Comments: "ok"})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, ts.Status)
	assert.Equal(t, admin.UserID, ts.ReviewedBy)
	assert.Equal(t, "ok", ts.Comments)
	require.NotNil(t, ts.ApprovedAt)

	ts, audit, err = lc.Apply(ts, timesheet.Transition{Event: timesheet.EventPay, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPaid, ts.Status)
	require.NotNil(t, ts.PaidAt)
	assert.Equal(t, fixedNow, *ts.PaidAt)
	assert.Equal(t, generic.AuditPaid, audit.Action)
	assert.Equal(t, admin.UserID, audit.ActorID)
	assert.Equal(t, employee.UserID, audit.UserID)
}

func TestLifecycle_RejectReopensForEditing(t *testing.T) {
	lc := newLifecycle()

	ts, _, err := lc.Apply(sheet(timesheet.StatusSubmitted), timesheet.Transition{Event: timesheet.EventReject, Actor: admin, Comments: "missing Friday"})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, ts.Status)
	assert.Equal(t, "missing Friday", ts.Comments)
	assert.True(t, ts.Status.IsEditable())

	ts, _, err = lc.Apply(ts, timesheet.Transition{Event: timesheet.EventSave, Actor: employee})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusDraft, ts.Status)
}

func TestLifecycle_ApproveWithoutCommentsKeepsPrevious(t *testing.T) {
	lc := newLifecycle()
	ts := sheet(timesheet.StatusSubmitted)
	ts.Comments = "earlier note"

	next, _, err := lc.Apply(ts, timesheet.Transition{Event: timesheet.EventApprove, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, "earlier note", next.Comments)
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestLifecycle_ApproveFromDraftIsInvalid(t *testing.T) {
	// GIVEN: A DRAFT month
	// WHEN: An admin approves it
	// THEN: ErrInvalidTransition, and the input is returned unchanged

	ts := sheet(timesheet.StatusDraft)
	out, _, err := newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventApprove, Actor: admin})

	assert.ErrorIs(t, err, generic.ErrInvalidTransition)
	assert.Equal(t, timesheet.StatusDraft, out.Status)
	assert.Nil(t, out.ApprovedAt)
}

func TestLifecycle_ForbiddenCheckedBeforeState(t *testing.T) {
	// GIVEN: A DRAFT month (approve would also be an invalid transition)
	// WHEN: An employee tries to approve
	// THEN: ErrForbidden wins over ErrInvalidTransition

	_, _, err := newLifecycle().Apply(sheet(timesheet.StatusDraft), timesheet.Transition{Event: timesheet.EventApprove, Actor: employee})
	assert.ErrorIs(t, err, generic.ErrForbidden)
	assert.NotErrorIs(t, err, generic.ErrInvalidTransition)
}

func TestLifecycle_OwnerOnlyForSaveAndSubmit(t *testing.T) {
	lc := newLifecycle()
	ts := sheet(timesheet.StatusDraft)

	other := timesheet.Caller{UserID: "emp-2", Roles: []timesheet.Role{timesheet.RoleEmployee}}
	_, _, err := lc.Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: other})
	assert.ErrorIs(t, err, generic.ErrForbidden)

	// Admin is not the owner either.
	_, _, err = lc.Apply(ts, timesheet.Transition{Event: timesheet.EventSave, Actor: admin})
	assert.ErrorIs(t, err, generic.ErrForbidden)

	// Owner without any timesheet role.
	ts.UserID = nobody.UserID
	_, _, err = lc.Apply(ts, timesheet.Transition{Event: timesheet.EventSave, Actor: nobody})
	assert.ErrorIs(t, err, generic.ErrForbidden)
}

func TestLifecycle_PayTwiceIsConflict(t *testing.T) {
	// GIVEN: A PAID month
	// WHEN: Paying again
	// THEN: ErrConflict, distinguishable from an ordinary invalid transition

	_, _, err := newLifecycle().Apply(sheet(timesheet.StatusPaid), timesheet.Transition{Event: timesheet.EventPay, Actor: admin})
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.NotErrorIs(t, err, generic.ErrInvalidTransition)
}

func TestLifecycle_PayBeforeApprovalIsInvalid(t *testing.T) {
	_, _, err := newLifecycle().Apply(sheet(timesheet.StatusSubmitted), timesheet.Transition{Event: timesheet.EventPay, Actor: admin})
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)
}

func TestLifecycle_NoEditsAfterSubmission(t *testing.T) {
	lc := newLifecycle()
	for _, st := range []timesheet.Status{timesheet.StatusSubmitted, timesheet.StatusApproved, timesheet.StatusPaid} {
		_, _, err := lc.Apply(sheet(st), timesheet.Transition{Event: timesheet.EventSave, Actor: employee})
		assert.ErrorIs(t, err, generic.ErrInvalidTransition, st)
	}
}

func TestLifecycle_EmptyDetailedSubmitFails(t *testing.T) {
	ts := sheet(timesheet.StatusDraft)
	ts.Entries = []timesheet.DayEntry{{Date: date(2025, time.March, 3), Notes: "only a note"}}

	_, _, err := newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: employee})
	assert.ErrorIs(t, err, generic.ErrValidationFailed)
}

func TestLifecycle_HolidayOnlySubmitIsAllowed(t *testing.T) {
	ts := sheet(timesheet.StatusDraft)
	ts.Entries = []timesheet.DayEntry{{Date: date(2025, time.March, 3), HolidayTypeID: typeID(2)}}

	_, _, err := newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: employee})
	assert.NoError(t, err)
}

func TestLifecycle_UploadSubmitNeedsDocument(t *testing.T) {
	pm := timesheet.Caller{UserID: employee.UserID, Roles: []timesheet.Role{timesheet.RolePaymentManager}}
	ts := sheet(timesheet.StatusDraft)
	ts.EntryMode = timesheet.ModeUpload
	ts.Entries = nil

	_, _, err := newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: pm})
	assert.ErrorIs(t, err, generic.ErrValidationFailed)

	declared := generic.NewHoursFromInt(168)
	ts.TotalHoursReported = &declared
	ts.AttachmentRef = "ref"
	_, _, err = newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventSubmit, Actor: pm})
	assert.NoError(t, err)
}

func TestLifecycle_RejectRequiresComments(t *testing.T) {
	for _, c := range []string{"", "   "} {
		_, _, err := newLifecycle().Apply(sheet(timesheet.StatusSubmitted), timesheet.Transition{Event: timesheet.EventReject, Actor: admin, Comments: c})
		var verr *generic.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "comments", verr.Field)
	}
}

func TestLifecycle_ApplyDoesNotMutateInput(t *testing.T) {
	ts := sheet(timesheet.StatusSubmitted)
	_, _, err := newLifecycle().Apply(ts, timesheet.Transition{Event: timesheet.EventApprove, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusSubmitted, ts.Status)
	assert.Nil(t, ts.ApprovedAt)
}
