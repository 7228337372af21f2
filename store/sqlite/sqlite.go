/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the timesheet service using
  SQLite. The same schema runs on PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  timesheet.Store:              Monthly timesheets with compare-and-swap
  timesheet.UserDirectory:      Users and their roles
  timesheet.HolidayTypeCatalog: Holiday/leave type catalog
  holidays.Repository:          Dated holiday calendar
  generic.AuditLog:             Lifecycle history

COMPARE-AND-SWAP:
  timesheets.version is bumped on every write. SaveTimesheet updates with
  "WHERE version = ?" and treats zero affected rows as a lost race, so two
  administrators approving the same SUBMITTED month cannot both succeed.
  The timesheet row, its entries and the audit entry are written in one
  SQL transaction.

KEY TABLES:
  users:             Directory records; roles stored comma-separated
  timesheets:        One row per (user_id, year, month)
  timesheet_entries: Sparse day rows, replaced wholesale on save
  holidays:          Calendar holidays, unique per (date, name)
  holiday_types:     Catalog of tags a day can carry
  audit_entries:     Append-only transition log

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite serializes writers anyway;
  the mutex keeps read-check-write sequences in this process consistent.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/timesheets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(), and the holiday type catalog is seeded
  when empty.

SEE ALSO:
  - timesheet/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/holidays"
	"github.com/warp/timesheet-engine/timesheet"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.seedHolidayTypes(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed holiday types: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		roles TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- One row per (user, year, month); version is the compare-and-swap token
	CREATE TABLE IF NOT EXISTS timesheets (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL,
		entry_mode TEXT NOT NULL,
		total_hours_reported TEXT,
		attachment_ref TEXT,
		submitted_at TEXT,
		approved_at TEXT,
		paid_at TEXT,
		reviewed_by TEXT,
		comments TEXT,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_status
		ON timesheets(status);
	CREATE INDEX IF NOT EXISTS idx_timesheets_period
		ON timesheets(year, month);

	-- Sparse day rows; only days carrying data are stored
	CREATE TABLE IF NOT EXISTS timesheet_entries (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		date TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		support_hours TEXT NOT NULL,
		holiday_type_id INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, date),
		FOREIGN KEY (user_id, year, month)
			REFERENCES timesheets(user_id, year, month) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS holiday_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		is_government BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		is_government BOOLEAN NOT NULL DEFAULT FALSE,
		holiday_type_id INTEGER REFERENCES holiday_types(id),
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- Append-only lifecycle history
	CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		action TEXT NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status TEXT NOT NULL DEFAULT '',
		comments TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timesheet
		ON audit_entries(user_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TIMESHEET STORE (timesheet.Store interface)
// =============================================================================

// LoadTimesheet returns the stored timesheet with its entries, or nil.
func (s *Store) LoadTimesheet(ctx context.Context, key timesheet.Key) (*timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadTimesheet(ctx, s.db, key)
}

func (s *Store) loadTimesheet(ctx context.Context, q querier, key timesheet.Key) (*timesheet.Timesheet, error) {
	row := q.QueryRowContext(ctx, selectTimesheet+" WHERE user_id = ? AND year = ? AND month = ?",
		string(key.UserID), key.Year, key.Month)
	ts, err := scanTimesheet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timesheet %s: %w", key, err)
	}

	entries, err := s.loadEntries(ctx, q, key)
	if err != nil {
		return nil, err
	}
	ts.Entries = entries
	return &ts, nil
}

func (s *Store) loadEntries(ctx context.Context, q querier, key timesheet.Key) ([]timesheet.DayEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT date, hours_worked, support_hours, holiday_type_id, notes
		FROM timesheet_entries
		WHERE user_id = ? AND year = ? AND month = ?
		ORDER BY date ASC
	`, string(key.UserID), key.Year, key.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for %s: %w", key, err)
	}
	defer rows.Close()

	var entries []timesheet.DayEntry
	for rows.Next() {
		var (
			dateStr, hours, support string
			typeID                  sql.NullInt64
			e                       timesheet.DayEntry
		)
		if err := rows.Scan(&dateStr, &hours, &support, &typeID, &e.Notes); err != nil {
			return nil, err
		}
		date, err := generic.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad entry date %q: %w", dateStr, err)
		}
		e.Date = date
		e.IsWeekend = date.IsWeekend()
		if e.HoursWorked, err = parseHours("hours_worked", dateStr, hours); err != nil {
			return nil, err
		}
		if e.SupportHours, err = parseHours("support_hours", dateStr, support); err != nil {
			return nil, err
		}
		if typeID.Valid {
			id := generic.HolidayTypeID(typeID.Int64)
			e.HolidayTypeID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveTimesheet writes ts, its entries and the audit entry in one transaction
// if the stored version equals expected.
func (s *Store) SaveTimesheet(ctx context.Context, ts timesheet.Timesheet, expected int, audit *generic.AuditEntry) (timesheet.Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var saved timesheet.Timesheet
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = s.saveTimesheet(ctx, tx, ts, expected)
		if err != nil {
			return err
		}
		if audit != nil {
			return s.appendAudit(ctx, tx, *audit)
		}
		return nil
	})
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	return saved, nil
}

func (s *Store) saveTimesheet(ctx context.Context, tx *sql.Tx, ts timesheet.Timesheet, expected int) (timesheet.Timesheet, error) {
	key := ts.Key()
	now := time.Now().UTC()
	next := expected + 1

	var total sql.NullString
	if ts.TotalHoursReported != nil {
		total = sql.NullString{String: ts.TotalHoursReported.String(), Valid: true}
	}
	args := []any{
		string(ts.Status), string(ts.EntryMode), total, nullString(ts.AttachmentRef),
		nullTime(ts.SubmittedAt), nullTime(ts.ApprovedAt), nullTime(ts.PaidAt),
		nullString(string(ts.ReviewedBy)), nullString(ts.Comments),
		next, now.Format(time.RFC3339Nano),
	}

	if expected == 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timesheets
			(status, entry_mode, total_hours_reported, attachment_ref, submitted_at, approved_at, paid_at,
			 reviewed_by, comments, version, updated_at, created_at, user_id, year, month)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append(args, now.Format(time.RFC3339Nano), string(key.UserID), key.Year, key.Month)...)
		if err != nil {
			if isUniqueConstraintError(err) {
				return timesheet.Timesheet{}, s.conflict(ctx, tx, key, expected)
			}
			return timesheet.Timesheet{}, fmt.Errorf("failed to insert timesheet %s: %w", key, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE timesheets SET
				status = ?, entry_mode = ?, total_hours_reported = ?, attachment_ref = ?,
				submitted_at = ?, approved_at = ?, paid_at = ?, reviewed_by = ?, comments = ?,
				version = ?, updated_at = ?
			WHERE user_id = ? AND year = ? AND month = ? AND version = ?
		`, append(args, string(key.UserID), key.Year, key.Month, expected)...)
		if err != nil {
			return timesheet.Timesheet{}, fmt.Errorf("failed to update timesheet %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return timesheet.Timesheet{}, s.conflict(ctx, tx, key, expected)
		}
	}

	if err := s.replaceEntries(ctx, tx, key, ts.Entries); err != nil {
		return timesheet.Timesheet{}, err
	}

	stored, err := s.loadTimesheet(ctx, tx, key)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	return *stored, nil
}

func (s *Store) conflict(ctx context.Context, tx *sql.Tx, key timesheet.Key, expected int) error {
	actual := 0
	err := tx.QueryRowContext(ctx,
		"SELECT version FROM timesheets WHERE user_id = ? AND year = ? AND month = ?",
		string(key.UserID), key.Year, key.Month,
	).Scan(&actual)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read version of %s: %w", key, err)
	}
	return &generic.VersionConflictError{Key: key.String(), Expected: expected, Actual: actual}
}

func (s *Store) replaceEntries(ctx context.Context, tx execer, key timesheet.Key, entries []timesheet.DayEntry) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM timesheet_entries WHERE user_id = ? AND year = ? AND month = ?",
		string(key.UserID), key.Year, key.Month,
	); err != nil {
		return fmt.Errorf("failed to clear entries for %s: %w", key, err)
	}

	for _, e := range entries {
		var typeID sql.NullInt64
		if e.HolidayTypeID != nil {
			typeID = sql.NullInt64{Int64: int64(*e.HolidayTypeID), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timesheet_entries
			(user_id, year, month, date, hours_worked, support_hours, holiday_type_id, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			string(key.UserID), key.Year, key.Month, e.Date.Key(),
			e.HoursWorked.String(), e.SupportHours.String(), typeID, e.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s for %s: %w", e.Date, key, err)
		}
	}
	return nil
}

// ListTimesheets returns matching timesheets with their entries.
func (s *Store) ListTimesheets(ctx context.Context, filter timesheet.ListFilter) ([]timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, string(*filter.UserID))
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *filter.Year)
	}
	if filter.Month != nil {
		where = append(where, "month = ?")
		args = append(args, *filter.Month)
	}
	query := selectTimesheet
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY user_id, year, month"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	var sheets []timesheet.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sheets = append(sheets, ts)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range sheets {
		entries, err := s.loadEntries(ctx, s.db, sheets[i].Key())
		if err != nil {
			return nil, err
		}
		sheets[i].Entries = entries
	}
	return sheets, nil
}

const selectTimesheet = `
	SELECT user_id, year, month, status, entry_mode, total_hours_reported, attachment_ref,
	       submitted_at, approved_at, paid_at, reviewed_by, comments, version, created_at, updated_at
	FROM timesheets`

type scanner interface {
	Scan(dest ...any) error
}

func scanTimesheet(row scanner) (timesheet.Timesheet, error) {
	var (
		ts                                      timesheet.Timesheet
		userID, status, mode                    string
		total, attachment, reviewedBy, comments sql.NullString
		submittedAt, approvedAt, paidAt         sql.NullString
		createdAt, updatedAt                    string
	)
	err := row.Scan(&userID, &ts.Year, &ts.Month, &status, &mode, &total, &attachment,
		&submittedAt, &approvedAt, &paidAt, &reviewedBy, &comments, &ts.Version, &createdAt, &updatedAt)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	ts.UserID = generic.UserID(userID)
	ts.Status = timesheet.Status(status)
	ts.EntryMode = timesheet.EntryMode(mode)
	if total.Valid {
		h, err := parseHours("total_hours_reported", fmt.Sprintf("%s/%d-%02d", userID, ts.Year, ts.Month), total.String)
		if err != nil {
			return timesheet.Timesheet{}, err
		}
		ts.TotalHoursReported = &h
	}
	ts.AttachmentRef = attachment.String
	ts.ReviewedBy = generic.UserID(reviewedBy.String)
	ts.Comments = comments.String
	ts.SubmittedAt = parseNullTime(submittedAt)
	ts.ApprovedAt = parseNullTime(approvedAt)
	ts.PaidAt = parseNullTime(paidAt)
	ts.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	ts.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return ts, nil
}

// withTx executes a function within a database transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// USER DIRECTORY (timesheet.UserDirectory interface)
// =============================================================================

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u timesheet.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, username, email, roles, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			roles = excluded.roles
	`
	_, err := s.db.ExecContext(ctx, query,
		string(u.ID), u.Username, u.Email, joinRoles(u.Roles),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id generic.UserID) (*timesheet.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u timesheet.User
	var uid, roles string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, roles FROM users WHERE id = ?",
		string(id),
	).Scan(&uid, &u.Username, &u.Email, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ID = generic.UserID(uid)
	u.Roles = splitRoles(roles)
	return &u, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]timesheet.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, username, email, roles FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []timesheet.User
	for rows.Next() {
		var u timesheet.User
		var uid, roles string
		if err := rows.Scan(&uid, &u.Username, &u.Email, &roles); err != nil {
			return nil, err
		}
		u.ID = generic.UserID(uid)
		u.Roles = splitRoles(roles)
		users = append(users, u)
	}
	return users, rows.Err()
}

func joinRoles(roles []timesheet.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

func splitRoles(s string) []timesheet.Role {
	if s == "" {
		return nil
	}
	return timesheet.ParseRoles(strings.Split(s, ","))
}

// =============================================================================
// HOLIDAY CALENDAR (holidays.Repository interface)
// =============================================================================

var _ holidays.Repository = (*Store)(nil)

// UpsertHoliday saves a holiday and reports whether the (date, name) pair was new.
func (s *Store) UpsertHoliday(ctx context.Context, h generic.Holiday) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	var typeID sql.NullInt64
	if h.TypeID != nil {
		typeID = sql.NullInt64{Int64: int64(*h.TypeID), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, is_government, holiday_type_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO NOTHING
	`, h.ID, h.Date.Key(), h.Name, h.IsGovernment, typeID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to save holiday %s: %w", h.Date, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HolidaysInRange implements generic.HolidayResolver.
func (s *Store) HolidaysInRange(ctx context.Context, from, to generic.TimePoint) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, is_government, holiday_type_id
		FROM holidays
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, name ASC
	`, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var (
			h       generic.Holiday
			dateStr string
			typeID  sql.NullInt64
		)
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.IsGovernment, &typeID); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("bad holiday date %q: %w", dateStr, err)
		}
		if typeID.Valid {
			id := generic.HolidayTypeID(typeID.Int64)
			h.TypeID = &id
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAY TYPES (timesheet.HolidayTypeCatalog interface)
// =============================================================================

func (s *Store) seedHolidayTypes(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM holiday_types").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range holidays.DefaultTypes() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO holiday_types (name, description, is_government) VALUES (?, ?, ?)",
				t.Name, t.Description, t.IsGovernment,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListHolidayTypes returns the catalog ordered by ID.
func (s *Store) ListHolidayTypes(ctx context.Context) ([]generic.HolidayType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, is_government FROM holiday_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []generic.HolidayType
	for rows.Next() {
		var t generic.HolidayType
		var id int64
		if err := rows.Scan(&id, &t.Name, &t.Description, &t.IsGovernment); err != nil {
			return nil, err
		}
		t.ID = generic.HolidayTypeID(id)
		types = append(types, t)
	}
	return types, rows.Err()
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

// AppendAudit records an entry outside of a timesheet write.
func (s *Store) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendAudit(ctx, s.db, e)
}

func (s *Store) appendAudit(ctx context.Context, db interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, e generic.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	var seq int64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries").Scan(&seq); err != nil {
		return fmt.Errorf("failed to allocate audit sequence: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_entries
		(id, at, actor_id, user_id, year, month, action, from_status, to_status, comments, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.At.UTC().Format(time.RFC3339Nano), string(e.ActorID), string(e.UserID),
		e.Year, e.Month, string(e.Action), e.From, e.To, e.Comments, seq,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// QueryAudit returns matching entries in insertion order.
func (s *Store) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, string(*filter.UserID))
	}
	if filter.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, string(*filter.ActorID))
	}
	if filter.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *filter.Year)
	}
	if filter.Month != nil {
		where = append(where, "month = ?")
		args = append(args, *filter.Month)
	}
	query := `SELECT id, at, actor_id, user_id, year, month, action, from_status, to_status, comments
		FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit: %w", err)
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var e generic.AuditEntry
		var at, actor, user, action string
		if err := rows.Scan(&e.ID, &at, &actor, &user, &e.Year, &e.Month, &action, &e.From, &e.To, &e.Comments); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.ActorID = generic.UserID(actor)
		e.UserID = generic.UserID(user)
		e.Action = generic.AuditAction(action)
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseHours(column, row, value string) (generic.Hours, error) {
	h, err := generic.ParseHours(value)
	if err != nil {
		return generic.ZeroHours, fmt.Errorf("bad %s %q for %s: %w", column, value, row, err)
	}
	return h, nil
}

func isUniqueConstraintError(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
