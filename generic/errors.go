/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these to HTTP statuses; the core never returns
  untyped errors for a business rule failure.

ERROR CATEGORIES:
  1. Input errors - InvalidPeriod, DateOutOfRange, ValidationFailed
  2. Authorization errors - Forbidden
  3. Workflow errors - InvalidTransition, Conflict
  4. Infrastructure errors - UpstreamUnavailable, NotFound

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, generic.ErrForbidden) {
        ...
    }
    var verr *generic.ValidationError
    if errors.As(err, &verr) {
        log.Printf("fix field %s on %s", verr.Field, verr.Date)
    }

RETRIES:
  Nothing is retried inside the engine. IsRetryable tells the caller which
  failures are worth retrying with backoff.

SEE ALSO:
  - timesheet/lifecycle.go: Returns TransitionError and ForbiddenError
  - timesheet/validate.go: Returns ValidationError and DateOutOfRangeError
  - api/errors.go: HTTP mapping
*/
package generic

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when year/month is outside the accepted range.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDateOutOfRange is returned when an entry date lies outside the requested month.
	ErrDateOutOfRange = errors.New("date out of range")

	// ErrValidationFailed is returned when an entry or upload field is out of bounds.
	ErrValidationFailed = errors.New("validation failed")

	// ErrForbidden is returned when the actor lacks the role for the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when the state machine precondition is not met.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrUpstreamUnavailable is returned when a collaborator timed out or failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrConflict is returned when a compare-and-swap write lost the race.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPeriodError describes a rejected year/month pair.
type InvalidPeriodError struct {
	Year   int
	Month  int
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %04d-%02d: %s", e.Year, e.Month, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrInvalidPeriod }

// DateOutOfRangeError names the offending date and the month it was checked against.
type DateOutOfRangeError struct {
	Date   TimePoint
	Period Period
}

func (e *DateOutOfRangeError) Error() string {
	return fmt.Sprintf("date %s outside %s", e.Date, e.Period)
}

func (e *DateOutOfRangeError) Unwrap() error { return ErrDateOutOfRange }

// ValidationError names the field and, for entry fields, the day.
type ValidationError struct {
	Field   string
	Date    *TimePoint
	Message string
}

func (e *ValidationError) Error() string {
	if e.Date != nil {
		return fmt.Sprintf("validation failed: %s on %s: %s", e.Field, e.Date, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// ForbiddenError names the actor and the action they attempted.
type ForbiddenError struct {
	Actor  UserID
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s may not %s", e.Actor, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// TransitionError describes a lifecycle event rejected from the current status.
// When Conflict is set the event was a repeat of one already applied (e.g. pay twice).
type TransitionError struct {
	From     string
	Event    string
	Conflict bool
}

func (e *TransitionError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("conflict: %s already applied (status %s)", e.Event, e.From)
	}
	return fmt.Sprintf("invalid transition: cannot %s from %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	if e.Conflict {
		return ErrConflict
	}
	return ErrInvalidTransition
}

// VersionConflictError is returned by stores when a compare-and-swap fails.
type VersionConflictError struct {
	Key      string
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("conflict: %s expected version %d, found %d", e.Key, e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error { return ErrConflict }

// UpstreamError wraps a collaborator failure (holiday calendar, persistence, file storage).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

// Upstream wraps err as an UpstreamError unless it already carries a
// domain classification, which is passed through untouched.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

func isClassified(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDateOutOfRange) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDateOutOfRange) ||
		errors.Is(err, ErrValidationFailed)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
