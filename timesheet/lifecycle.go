/*
lifecycle.go - Status state machine for a monthly timesheet

PURPOSE:
  Owns the five-state workflow for one (user, year, month):

    ┌───────┐ submit ┌───────────┐ approve ┌──────────┐ pay ┌──────┐
    │ DRAFT │──────▶│ SUBMITTED │───────▶│ APPROVED │────▶│ PAID │
    └───────┘        └───────────┘         └──────────┘     └──────┘
      ▲  │save            │ reject
      │  ▼                ▼
      └──────────── ┌──────────┐
        save/submit │ REJECTED │
                    └──────────┘

  save and submit belong to the owner; approve, reject and pay belong to
  administrators.

EVALUATION ORDER:
  1. Authorize   - wrong actor gets ErrForbidden, before anything else is looked at
  2. Check state - ErrInvalidTransition (or ErrConflict for a repeated pay)
  3. Check content - ErrValidationFailed (empty submit, missing reject comments)
  4. Apply       - returns a new Timesheet; the input is never modified

  The lifecycle does not persist anything. The service commits the result with a
  compare-and-swap on Version so two admins racing on the same SUBMITTED month
  cannot both win.

SEE ALSO:
  - service.go: Load → Lifecycle → SaveTimesheet(expectedVersion)
  - generic/errors.go: TransitionError, ForbiddenError
*/
package timesheet

import (
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// Transition is one requested lifecycle event.
type Transition struct {
	Event    Event
	Actor    Caller
	Comments string
}

// Lifecycle evaluates and applies transitions.
type Lifecycle struct {
	Now func() time.Time
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{Now: func() time.Time { return time.Now().UTC() }}
}

// Authorize verifies the actor may request the event on this timesheet at all.
func (l *Lifecycle) Authorize(ts Timesheet, tr Transition) error {
	switch tr.Event {
	case EventSave, EventSubmit:
		if tr.Actor.UserID != ts.UserID || !CanKeepTimesheet(tr.Actor.Roles) {
			return &generic.ForbiddenError{Actor: tr.Actor.UserID, Action: string(tr.Event) + " " + ts.Key().String()}
		}
		return nil
	case EventApprove, EventReject, EventPay:
		if !IsAdmin(tr.Actor.Roles) {
			return &generic.ForbiddenError{Actor: tr.Actor.UserID, Action: string(tr.Event) + " " + ts.Key().String()}
		}
		return nil
	default:
		return &generic.TransitionError{From: string(ts.Status), Event: string(tr.Event)}
	}
}

// CheckState verifies the current status admits the event.
func (l *Lifecycle) CheckState(ts Timesheet, event Event) error {
	switch event {
	case EventSave, EventSubmit:
		if ts.Status.IsEditable() {
			return nil
		}
	case EventApprove, EventReject:
		if ts.Status == StatusSubmitted {
			return nil
		}
	case EventPay:
		if ts.Status == StatusApproved {
			return nil
		}
		if ts.Status == StatusPaid {
			return &generic.TransitionError{From: string(ts.Status), Event: string(event), Conflict: true}
		}
	}
	return &generic.TransitionError{From: string(ts.Status), Event: string(event)}
}

// CheckContent verifies the event's data preconditions.
func (l *Lifecycle) CheckContent(ts Timesheet, tr Transition) error {
	switch tr.Event {
	case EventSubmit:
		return checkSubmittable(ts)
	case EventReject:
		return validateRejectComments(tr.Comments)
	}
	return nil
}

func checkSubmittable(ts Timesheet) error {
	if ts.EntryMode == ModeUpload {
		if ts.AttachmentRef == "" {
			return &generic.ValidationError{Field: "attachment", Message: "a PDF must be uploaded before submitting"}
		}
		if ts.TotalHoursReported == nil || !ts.TotalHoursReported.IsPositive() {
			return &generic.ValidationError{Field: "totalHoursReported", Message: "a declared total is required before submitting"}
		}
		return nil
	}
	for _, e := range ts.Entries {
		if e.HoursWorked.IsPositive() || e.SupportHours.IsPositive() || e.HolidayTypeID != nil {
			return nil
		}
	}
	return &generic.ValidationError{Field: "entries", Message: "at least one day must carry hours or a holiday"}
}

// Evaluate runs authorization, state and content checks in that order.
func (l *Lifecycle) Evaluate(ts Timesheet, tr Transition) error {
	if err := l.Authorize(ts, tr); err != nil {
		return err
	}
	if err := l.CheckState(ts, tr.Event); err != nil {
		return err
	}
	return l.CheckContent(ts, tr)
}

// Apply evaluates the transition and returns the resulting timesheet and its
// audit entry. On error the returned timesheet is the unchanged input.
func (l *Lifecycle) Apply(ts Timesheet, tr Transition) (Timesheet, generic.AuditEntry, error) {
	if err := l.Evaluate(ts, tr); err != nil {
		return ts, generic.AuditEntry{}, err
	}

	now := l.Now()
	next := ts.Clone()
	from := ts.Status

	switch tr.Event {
	case EventSave:
		next.Status = StatusDraft
	case EventSubmit:
		next.Status = StatusSubmitted
		next.SubmittedAt = &now
	case EventApprove:
		next.Status = StatusApproved
		next.ApprovedAt = &now
		next.ReviewedBy = tr.Actor.UserID
		if tr.Comments != "" {
			next.Comments = tr.Comments
		}
	case EventReject:
		next.Status = StatusRejected
		next.ReviewedBy = tr.Actor.UserID
		next.Comments = tr.Comments
	case EventPay:
		next.Status = StatusPaid
		next.PaidAt = &now
	}
	next.UpdatedAt = now

	entry := generic.AuditEntry{
		At:       now,
		ActorID:  tr.Actor.UserID,
		UserID:   ts.UserID,
		Year:     ts.Year,
		Month:    ts.Month,
		Action:   auditActionFor(tr.Event),
		From:     string(from),
		To:       string(next.Status),
		Comments: tr.Comments,
	}
	return next, entry, nil
}

func auditActionFor(e Event) generic.AuditAction {
	switch e {
	case EventSubmit:
		return generic.AuditSubmitted
	case EventApprove:
		return generic.AuditApproved
	case EventReject:
		return generic.AuditRejected
	case EventPay:
		return generic.AuditPaid
	default:
		return generic.AuditDraftSaved
	}
}
