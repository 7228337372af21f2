/*
service.go - Timesheet service: the operations exposed to the API layer

PURPOSE:
  Composes the pure pieces into the read and write paths:

    getMonth:  GenerateMonth → Load → HolidaysInRange → Reconcile → Aggregate
    saveDraft: Authorize → CheckState → ValidateEntries → Apply → SaveTimesheet(CAS)
    submit:    Load → Lifecycle.Apply(submit) → SaveTimesheet(CAS)
    upload:    Authorize → CheckState → ValidateUpload → Attachments.Put → SaveTimesheet(CAS)
    admin:     Load → Lifecycle.Apply(approve|reject|pay) → SaveTimesheet(CAS)
    summaries: ListTimesheets + ListUsers → BuildIndex → Aggregate per row

COLLABORATOR CALLS:
  Every call into a Store, directory, resolver or attachment store runs under
  Timeout. Failures that are not already domain errors are wrapped as
  generic.UpstreamError so callers can retry them.

COMMIT POINT:
  The only mutation is SaveTimesheet. Context cancellation is checked right
  before it; nothing before that point writes anything except an uploaded
  document, which is removed again when the commit fails.

SEE ALSO:
  - lifecycle.go: Transition rules
  - store.go: Collaborator interfaces
  - api/handlers.go: HTTP wrappers
*/
package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/generic"
)

// Service implements the timesheet operations.
type Service struct {
	Store        Store
	Users        UserDirectory
	Holidays     generic.HolidayResolver
	HolidayTypes HolidayTypeCatalog
	Attachments  AttachmentStore
	Audit        generic.AuditLog
	Seeder       HolidaySeeder

	Rules      Rules
	Aggregator Aggregator
	Lifecycle  *Lifecycle

	// Timeout bounds each collaborator call. Zero leaves only the caller's deadline.
	Timeout time.Duration
	Logger  *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) lifecycle() *Lifecycle {
	if s.Lifecycle == nil {
		return NewLifecycle()
	}
	return s.Lifecycle
}

func (s *Service) holidays() generic.HolidayResolver {
	if s.Holidays == nil {
		return generic.NoHolidays{}
	}
	return s.Holidays
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// =============================================================================
// COLLABORATOR CALLS
// =============================================================================

func (s *Service) load(ctx context.Context, key Key) (*Timesheet, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	ts, err := s.Store.LoadTimesheet(cctx, key)
	return ts, generic.Upstream("load timesheet", err)
}

func (s *Service) loadOrNew(ctx context.Context, key Key, mode EntryMode) (Timesheet, error) {
	ts, err := s.load(ctx, key)
	if err != nil {
		return Timesheet{}, err
	}
	if ts == nil {
		return Timesheet{UserID: key.UserID, Year: key.Year, Month: key.Month, Status: StatusDraft, EntryMode: mode}, nil
	}
	return *ts, nil
}

func (s *Service) holidaysIn(ctx context.Context, period generic.Period) ([]generic.Holiday, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	hs, err := s.holidays().HolidaysInRange(cctx, period.Start, period.End)
	if err != nil {
		s.logger().Warn("holiday resolver failed", zap.String("period", period.String()), zap.Error(err))
		return nil, generic.Upstream("resolve holidays", err)
	}
	return hs, nil
}

func (s *Service) knownHolidayTypes(ctx context.Context) (map[generic.HolidayTypeID]bool, error) {
	if s.HolidayTypes == nil {
		return nil, nil
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	types, err := s.HolidayTypes.ListHolidayTypes(cctx)
	if err != nil {
		return nil, generic.Upstream("list holiday types", err)
	}
	known := make(map[generic.HolidayTypeID]bool, len(types))
	for _, t := range types {
		known[t.ID] = true
	}
	return known, nil
}

func (s *Service) commit(ctx context.Context, ts Timesheet, expected int, audit *generic.AuditEntry) (Timesheet, error) {
	if err := ctx.Err(); err != nil {
		return Timesheet{}, err
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	saved, err := s.Store.SaveTimesheet(cctx, ts, expected, audit)
	if err != nil {
		return Timesheet{}, generic.Upstream("save timesheet", err)
	}
	return saved, nil
}

// =============================================================================
// READ PATH
// =============================================================================

// GetMonth returns the reconciled month for user. The owner needs a timesheet
// capability; administrators may read anyone's month.
func (s *Service) GetMonth(ctx context.Context, caller Caller, user generic.UserID, year, month int) (MonthView, error) {
	mode := EntryModeFor(caller.Roles)
	switch {
	case caller.UserID == user && mode != ModeNone:
	case IsAdmin(caller.Roles):
		if caller.UserID != user {
			var err error
			if mode, err = s.modeOf(ctx, user); err != nil {
				return MonthView{}, err
			}
		}
	default:
		return MonthView{}, &generic.ForbiddenError{Actor: caller.UserID, Action: "read " + Key{UserID: user, Year: year, Month: month}.String()}
	}

	period, err := generic.MonthPeriod(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	ts, err := s.loadOrNew(ctx, Key{UserID: user, Year: year, Month: month}, mode)
	if err != nil {
		return MonthView{}, err
	}
	return s.view(ctx, period, ts)
}

func (s *Service) modeOf(ctx context.Context, id generic.UserID) (EntryMode, error) {
	if s.Users == nil {
		return ModeDetailed, nil
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	u, err := s.Users.GetUser(cctx, id)
	if err != nil {
		return ModeNone, generic.Upstream("get user", err)
	}
	if u == nil {
		return ModeNone, generic.ErrNotFound
	}
	return EntryModeFor(u.Roles), nil
}

func (s *Service) view(ctx context.Context, period generic.Period, ts Timesheet) (MonthView, error) {
	skeleton, err := GenerateMonth(ts.Year, ts.Month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	hs, err := s.holidaysIn(ctx, period)
	if err != nil {
		return MonthView{}, err
	}
	days, err := Reconcile(skeleton, ts.Entries, hs)
	if err != nil {
		return MonthView{}, err
	}
	return MonthView{
		UserID:    ts.UserID,
		Year:      ts.Year,
		Month:     ts.Month,
		Days:      days,
		Aggregate: s.Aggregator.ComputeFor(days, ts),
		Status:    ts.Status,
		EntryMode: ts.EntryMode,
		Timesheet: ts,
	}, nil
}

// =============================================================================
// WRITE PATH - Owner operations
// =============================================================================

// SaveDraft replaces the caller's entries for the month. With submit set, the
// saved month is submitted in the same commit.
func (s *Service) SaveDraft(ctx context.Context, caller Caller, year, month int, entries []DayEntry, submit bool) (MonthView, error) {
	key := Key{UserID: caller.UserID, Year: year, Month: month}
	mode := EntryModeFor(caller.Roles)
	lc := s.lifecycle()
	save := Transition{Event: EventSave, Actor: caller}
	if err := s.authorizeOwner(key, save); err != nil {
		return MonthView{}, err
	}

	period, err := generic.MonthPeriod(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	current, err := s.loadOrNew(ctx, key, mode)
	if err != nil {
		return MonthView{}, err
	}
	if err := lc.Authorize(current, save); err != nil {
		return MonthView{}, err
	}
	if err := lc.CheckState(current, EventSave); err != nil {
		return MonthView{}, err
	}
	if err := checkEntryMode(current, mode); err != nil {
		return MonthView{}, err
	}
	if mode != ModeDetailed {
		return MonthView{}, &generic.ValidationError{Field: "entryMode", Message: "this account reports hours by document upload"}
	}
	known, err := s.knownHolidayTypes(ctx)
	if err != nil {
		return MonthView{}, err
	}
	if err := ValidateEntries(period, entries, s.Rules, known); err != nil {
		return MonthView{}, err
	}

	next, audit, err := lc.Apply(current, save)
	if err != nil {
		return MonthView{}, err
	}
	next.Entries = Sparse(normalize(entries))

	if submit {
		submitted, subAudit, err := lc.Apply(next, Transition{Event: EventSubmit, Actor: caller})
		if err != nil {
			return MonthView{}, err
		}
		subAudit.From = string(current.Status)
		next, audit = submitted, subAudit
	}

	saved, err := s.commit(ctx, next, current.Version, &audit)
	if err != nil {
		return MonthView{}, err
	}
	s.logger().Info("timesheet saved",
		zap.String("key", key.String()),
		zap.String("status", string(saved.Status)),
		zap.Int("entries", len(saved.Entries)),
		zap.Int("version", saved.Version),
	)
	return s.view(ctx, period, saved)
}

// checkEntryMode rejects a write whose mode differs from the one the stored
// month was created with.
func checkEntryMode(current Timesheet, mode EntryMode) error {
	if current.Version == 0 || current.EntryMode == mode {
		return nil
	}
	return &generic.ValidationError{
		Field:   "entryMode",
		Message: fmt.Sprintf("this month was created in %s mode", current.EntryMode),
	}
}

// authorizeOwner runs the actor check before the period or the store is consulted.
func (s *Service) authorizeOwner(key Key, tr Transition) error {
	return s.lifecycle().Authorize(Timesheet{UserID: key.UserID, Year: key.Year, Month: key.Month}, tr)
}

func normalize(entries []DayEntry) []DayEntry {
	out := make([]DayEntry, len(entries))
	for i, e := range entries {
		e.IsWeekend = e.Date.IsWeekend()
		e.Holiday = nil
		out[i] = e
	}
	return out
}

// Submit moves the caller's month from DRAFT or REJECTED to SUBMITTED.
func (s *Service) Submit(ctx context.Context, caller Caller, year, month int) (MonthView, error) {
	key := Key{UserID: caller.UserID, Year: year, Month: month}
	if err := s.authorizeOwner(key, Transition{Event: EventSubmit, Actor: caller}); err != nil {
		return MonthView{}, err
	}
	period, err := generic.MonthPeriod(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	current, err := s.loadOrNew(ctx, key, EntryModeFor(caller.Roles))
	if err != nil {
		return MonthView{}, err
	}
	next, audit, err := s.lifecycle().Apply(current, Transition{Event: EventSubmit, Actor: caller})
	if err != nil {
		return MonthView{}, err
	}
	saved, err := s.commit(ctx, next, current.Version, &audit)
	if err != nil {
		return MonthView{}, err
	}
	s.logger().Info("timesheet submitted", zap.String("key", key.String()), zap.Int("version", saved.Version))
	return s.view(ctx, period, saved)
}

// Upload stores the document and declared total for an UPLOAD-mode month.
func (s *Service) Upload(ctx context.Context, caller Caller, year, month int, declared generic.Hours, file Upload, submit bool) (MonthView, error) {
	key := Key{UserID: caller.UserID, Year: year, Month: month}
	mode := EntryModeFor(caller.Roles)
	lc := s.lifecycle()
	save := Transition{Event: EventSave, Actor: caller}
	if err := s.authorizeOwner(key, save); err != nil {
		return MonthView{}, err
	}

	period, err := generic.MonthPeriod(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	current, err := s.loadOrNew(ctx, key, mode)
	if err != nil {
		return MonthView{}, err
	}
	if err := lc.Authorize(current, save); err != nil {
		return MonthView{}, err
	}
	if err := lc.CheckState(current, EventSave); err != nil {
		return MonthView{}, err
	}
	if err := checkEntryMode(current, mode); err != nil {
		return MonthView{}, err
	}
	if mode != ModeUpload {
		return MonthView{}, &generic.ValidationError{Field: "entryMode", Message: "this account reports hours per day"}
	}
	if s.Attachments == nil {
		return MonthView{}, &generic.UpstreamError{Op: "store attachment", Err: errors.New("no attachment store configured")}
	}
	skeleton, err := GenerateMonth(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	if err := ValidateUpload(skeleton, declared, file, s.Rules); err != nil {
		return MonthView{}, err
	}

	next, audit, err := lc.Apply(current, save)
	if err != nil {
		return MonthView{}, err
	}
	audit.Action = generic.AuditUploaded

	pctx, cancel := s.bounded(ctx)
	ref, err := s.Attachments.Put(pctx, key, file)
	cancel()
	if err != nil {
		return MonthView{}, generic.Upstream("store attachment", err)
	}

	next.Entries = nil
	next.AttachmentRef = ref
	next.TotalHoursReported = &declared

	if submit {
		submitted, subAudit, err := lc.Apply(next, Transition{Event: EventSubmit, Actor: caller})
		if err != nil {
			s.discard(ref)
			return MonthView{}, err
		}
		subAudit.From = string(current.Status)
		next, audit = submitted, subAudit
	}

	saved, err := s.commit(ctx, next, current.Version, &audit)
	if err != nil {
		s.discard(ref)
		return MonthView{}, err
	}
	if current.AttachmentRef != "" && current.AttachmentRef != ref {
		s.discard(current.AttachmentRef)
	}
	s.logger().Info("timesheet document uploaded",
		zap.String("key", key.String()),
		zap.String("declared", declared.String()),
		zap.String("status", string(saved.Status)),
	)
	return s.view(ctx, period, saved)
}

// discard removes a document that is no longer referenced. Failures are logged only.
func (s *Service) discard(ref string) {
	ctx, cancel := s.bounded(context.Background())
	defer cancel()
	if err := s.Attachments.Delete(ctx, ref); err != nil {
		s.logger().Warn("failed to remove attachment", zap.String("ref", ref), zap.Error(err))
	}
}

// =============================================================================
// WRITE PATH - Administrator operations
// =============================================================================

// AdminTransition applies approve, reject or pay to a user's month.
// An absent timesheet behaves as an empty DRAFT.
func (s *Service) AdminTransition(ctx context.Context, caller Caller, user generic.UserID, year, month int, event Event, comments string) (MonthView, error) {
	key := Key{UserID: user, Year: year, Month: month}
	if !IsAdmin(caller.Roles) {
		return MonthView{}, &generic.ForbiddenError{Actor: caller.UserID, Action: string(event) + " " + key.String()}
	}
	if _, ok := ParseAdminEvent(string(event)); !ok {
		return MonthView{}, &generic.TransitionError{From: "", Event: string(event)}
	}
	period, err := generic.MonthPeriod(year, month, s.Rules.Years)
	if err != nil {
		return MonthView{}, err
	}
	current, err := s.loadOrNew(ctx, key, ModeNone)
	if err != nil {
		return MonthView{}, err
	}
	next, audit, err := s.lifecycle().Apply(current, Transition{Event: event, Actor: caller, Comments: comments})
	if err != nil {
		return MonthView{}, err
	}
	saved, err := s.commit(ctx, next, current.Version, &audit)
	if err != nil {
		return MonthView{}, err
	}
	s.logger().Info("timesheet transitioned",
		zap.String("key", key.String()),
		zap.String("event", string(event)),
		zap.String("actor", string(caller.UserID)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(saved.Status)),
	)
	return s.view(ctx, period, saved)
}

// =============================================================================
// ADMINISTRATIVE LISTINGS
// =============================================================================

// ListMonthlySummaries returns the latest month per non-admin user, filtered and sorted.
func (s *Service) ListMonthlySummaries(ctx context.Context, caller Caller, filter SummaryFilter) ([]Summary, error) {
	if !IsAdmin(caller.Roles) {
		return nil, &generic.ForbiddenError{Actor: caller.UserID, Action: "list timesheet summaries"}
	}
	sheets, users, err := s.listWithUsers(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	rows := BuildIndex(s.summaries(sheets, users), filter)
	return s.fillAggregates(ctx, rows, sheets)
}

// ListPending returns every SUBMITTED month awaiting review.
func (s *Service) ListPending(ctx context.Context, caller Caller) ([]Summary, error) {
	if !IsAdmin(caller.Roles) {
		return nil, &generic.ForbiddenError{Actor: caller.UserID, Action: "list pending timesheets"}
	}
	submitted := StatusSubmitted
	sheets, users, err := s.listWithUsers(ctx, ListFilter{Status: &submitted})
	if err != nil {
		return nil, err
	}
	rows := s.summaries(sheets, users)
	SortSummaries(rows)
	return s.fillAggregates(ctx, rows, sheets)
}

func (s *Service) listWithUsers(ctx context.Context, filter ListFilter) ([]Timesheet, map[generic.UserID]User, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	sheets, err := s.Store.ListTimesheets(cctx, filter)
	if err != nil {
		return nil, nil, generic.Upstream("list timesheets", err)
	}
	users := make(map[generic.UserID]User)
	if s.Users != nil {
		list, err := s.Users.ListUsers(cctx)
		if err != nil {
			return nil, nil, generic.Upstream("list users", err)
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}
	return sheets, users, nil
}

func (s *Service) summaries(sheets []Timesheet, users map[generic.UserID]User) []Summary {
	rows := make([]Summary, 0, len(sheets))
	for _, ts := range sheets {
		u, ok := users[ts.UserID]
		name := string(ts.UserID)
		if ok {
			name = u.Username
		}
		rows = append(rows, Summary{
			UserID:       ts.UserID,
			Username:     name,
			Year:         ts.Year,
			Month:        ts.Month,
			Status:       ts.Status,
			EntryMode:    ts.EntryMode,
			EntriesCount: len(ts.Entries),
			IsAdmin:      ok && IsAdmin(u.Roles),
		})
	}
	return rows
}

// fillAggregates computes the aggregate for the rows that survived reduction only.
func (s *Service) fillAggregates(ctx context.Context, rows []Summary, sheets []Timesheet) ([]Summary, error) {
	byKey := make(map[Key]Timesheet, len(sheets))
	for _, ts := range sheets {
		byKey[ts.Key()] = ts
	}
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts := byKey[Key{UserID: rows[i].UserID, Year: rows[i].Year, Month: rows[i].Month}]
		period, err := generic.MonthPeriod(ts.Year, ts.Month, s.Rules.Years)
		if err != nil {
			return nil, err
		}
		v, err := s.view(ctx, period, ts)
		if err != nil {
			return nil, err
		}
		rows[i].Aggregate = v.Aggregate
	}
	return rows, nil
}

// AuditTrail returns the recorded transitions of one month, oldest first.
func (s *Service) AuditTrail(ctx context.Context, caller Caller, user generic.UserID, year, month int) ([]generic.AuditEntry, error) {
	if caller.UserID != user && !IsAdmin(caller.Roles) {
		return nil, &generic.ForbiddenError{Actor: caller.UserID, Action: "read audit " + Key{UserID: user, Year: year, Month: month}.String()}
	}
	if s.Audit == nil {
		return nil, nil
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	entries, err := s.Audit.QueryAudit(cctx, generic.AuditFilter{UserID: &user, Year: &year, Month: &month})
	return entries, generic.Upstream("query audit", err)
}

// OpenAttachment streams the uploaded document of a month to its owner or an administrator.
func (s *Service) OpenAttachment(ctx context.Context, caller Caller, user generic.UserID, year, month int) (io.ReadCloser, error) {
	key := Key{UserID: user, Year: year, Month: month}
	if caller.UserID != user && !IsAdmin(caller.Roles) {
		return nil, &generic.ForbiddenError{Actor: caller.UserID, Action: "read attachment " + key.String()}
	}
	if _, err := generic.MonthPeriod(year, month, s.Rules.Years); err != nil {
		return nil, err
	}
	ts, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if ts == nil || ts.AttachmentRef == "" || s.Attachments == nil {
		return nil, generic.ErrNotFound
	}
	rc, err := s.Attachments.Open(ctx, ts.AttachmentRef)
	return rc, generic.Upstream("open attachment", err)
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// ListHolidays returns the calendar holidays in [from, to].
func (s *Service) ListHolidays(ctx context.Context, from, to generic.TimePoint) ([]generic.Holiday, error) {
	period := generic.Period{Start: from, End: to}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return s.holidaysIn(ctx, period)
}

func (s *Service) ListHolidayTypes(ctx context.Context) ([]generic.HolidayType, error) {
	if s.HolidayTypes == nil {
		return nil, nil
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	types, err := s.HolidayTypes.ListHolidayTypes(cctx)
	return types, generic.Upstream("list holiday types", err)
}

// SeedHolidays writes the default government holidays for year.
func (s *Service) SeedHolidays(ctx context.Context, caller Caller, year int) (int, error) {
	if !IsAdmin(caller.Roles) {
		return 0, &generic.ForbiddenError{Actor: caller.UserID, Action: "seed holidays"}
	}
	if !s.Rules.Years.Contains(year) {
		return 0, &generic.InvalidPeriodError{Year: year, Month: 1, Reason: "year out of range"}
	}
	if s.Seeder == nil {
		return 0, nil
	}
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	n, err := s.Seeder.SeedDefaults(cctx, year)
	if err != nil {
		return 0, generic.Upstream("seed holidays", err)
	}
	s.logger().Info("holidays seeded", zap.Int("year", year), zap.Int("added", n))
	return n, nil
}
