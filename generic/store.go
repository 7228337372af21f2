/*
store.go - Audit log interface

PURPOSE:
  Every committed lifecycle transition is recorded as an AuditEntry:
  who did what, when, to which (user, year, month). The audit log is
  append-only and separate from the timesheet rows it describes, so a
  rejected-then-resubmitted month keeps its full history.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: audit_entries table, written in the same
    SQL transaction as the status change
  - store/memory/memory.go: slice-backed, for tests

SEE ALSO:
  - timesheet/lifecycle.go: Produces the entries
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LOG - Separate from timesheets, tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID       string
	At       time.Time
	ActorID  UserID // who performed the action
	UserID   UserID // owner of the timesheet
	Year     int
	Month    int
	Action   AuditAction
	From     string
	To       string
	Comments string
}

type AuditAction string

const (
	AuditDraftSaved AuditAction = "draft_saved"
	AuditUploaded   AuditAction = "uploaded"
	AuditSubmitted  AuditAction = "submitted"
	AuditApproved   AuditAction = "approved"
	AuditRejected   AuditAction = "rejected"
	AuditPaid       AuditAction = "paid"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	UserID  *UserID
	ActorID *UserID
	Year    *int
	Month   *int
	Actions []AuditAction
}

// Matches applies the filter to a single entry.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.UserID != nil && e.UserID != *f.UserID {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if f.Year != nil && e.Year != *f.Year {
		return false
	}
	if f.Month != nil && e.Month != *f.Month {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
