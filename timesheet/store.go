/*
store.go - Collaborator interfaces the timesheet service depends on

PURPOSE:
  The core never talks to a database, the file system or the session layer
  directly. Everything it needs arrives through these interfaces, so the
  service can run against SQLite in production and maps in tests.

INTERFACES:
  Store              Timesheet rows with compare-and-swap on Version
  UserDirectory      Usernames and roles for the admin listing
  HolidayTypeCatalog Valid holidayTypeId values
  AttachmentStore    Opaque binary documents for UPLOAD mode
  HolidaySeeder      Writes the default holiday calendar for a year

  generic.HolidayResolver and generic.AuditLog are reused as-is.

COMPARE-AND-SWAP:
  SaveTimesheet(ts, expectedVersion, audit) succeeds only when the stored
  version still equals expectedVersion (0 for "not yet stored"). The audit
  entry, when non-nil, is committed in the same unit of work. A lost race
  returns *generic.VersionConflictError.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go
  - store/memory/memory.go
  - attachments/local.go
  - holidays/calendar.go
*/
package timesheet

import (
	"context"
	"io"

	"github.com/warp/timesheet-engine/generic"
)

// Store persists monthly timesheets.
type Store interface {
	// LoadTimesheet returns nil, nil when nothing is stored for key.
	LoadTimesheet(ctx context.Context, key Key) (*Timesheet, error)

	// SaveTimesheet writes ts if the stored version equals expectedVersion and
	// returns the stored copy with its new Version.
	SaveTimesheet(ctx context.Context, ts Timesheet, expectedVersion int, audit *generic.AuditEntry) (Timesheet, error)

	ListTimesheets(ctx context.Context, filter ListFilter) ([]Timesheet, error)
}

// ListFilter narrows ListTimesheets. Nil fields match everything.
type ListFilter struct {
	UserID *generic.UserID
	Status *Status
	Year   *int
	Month  *int
}

// Matches applies the filter to a single timesheet.
func (f ListFilter) Matches(ts Timesheet) bool {
	if f.UserID != nil && ts.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && ts.Status != *f.Status {
		return false
	}
	if f.Year != nil && ts.Year != *f.Year {
		return false
	}
	if f.Month != nil && ts.Month != *f.Month {
		return false
	}
	return true
}

type UserDirectory interface {
	// GetUser returns nil, nil for an unknown id.
	GetUser(ctx context.Context, id generic.UserID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type HolidayTypeCatalog interface {
	ListHolidayTypes(ctx context.Context) ([]generic.HolidayType, error)
}

// AttachmentStore holds uploaded documents behind an opaque reference.
type AttachmentStore interface {
	Put(ctx context.Context, key Key, file Upload) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

type HolidaySeeder interface {
	// SeedDefaults writes the default holidays for year and returns how many were new.
	SeedDefaults(ctx context.Context, year int) (int, error)
}
