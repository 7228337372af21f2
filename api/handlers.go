/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the timesheet service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to timesheet.Service. The caller always
  comes from the bearer token, never from the request body.

ENDPOINTS:
  Own timesheets:
    GET    /api/timesheets/{year}/{month}             Reconciled month view
    PUT    /api/timesheets/{year}/{month}             Save entries (optionally submit)
    POST   /api/timesheets/{year}/{month}/submit      Submit for approval
    POST   /api/timesheets/{year}/{month}/upload      Upload PDF + declared total
    GET    /api/timesheets/{year}/{month}/attachment  Download uploaded PDF
    GET    /api/timesheets/{year}/{month}/audit       Transition history

  Admin:
    GET    /api/admin/timesheets                      Latest month per user
    GET    /api/admin/timesheets/pending              SUBMITTED months
    GET    /api/admin/timesheets/{userId}/{year}/{month}
    POST   /api/admin/timesheets/{userId}/{year}/{month}/{event}   approve|reject|pay
    GET    /api/admin/timesheets/{userId}/{year}/{month}/audit
    GET    /api/admin/timesheets/{userId}/{year}/{month}/attachment
    POST   /api/admin/holidays/defaults?year=         Seed public holidays

  Holidays:
    GET    /api/holidays?start=&end=                  Calendar holidays
    GET    /api/holidays/types                        Holiday type catalog

REQUEST FLOW:
  1. Read caller from context (set by Authenticator.Middleware)
  2. Parse path/query/body
  3. Call timesheet.Service
  4. Serialize response, or map the error via writeDomainError

ERROR HANDLING:
  See errors.go. Parse failures of the request itself are 400 with a
  ValidationError so the body has the same shape as domain failures.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports storage health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service        *timesheet.Service
	Health         Pinger
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// NewHandler creates a new handler around the service.
func NewHandler(svc *timesheet.Service, health Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:        svc,
		Health:         health,
		Logger:         logger,
		MaxUploadBytes: svc.Rules.MaxUploadBytes,
	}
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (timesheet.Caller, bool) {
	c, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
	}
	return c, ok
}

// period parses {year}/{month} path parameters. Range checks are the service's.
func period(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, &generic.InvalidPeriodError{Reason: "year must be an integer"}
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, &generic.InvalidPeriodError{Year: year, Reason: "month must be an integer"}
	}
	return year, month, nil
}

// =============================================================================
// OWN TIMESHEET HANDLERS
// =============================================================================

// GetMonth returns the caller's month.
// GET /api/timesheets/{year}/{month}
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.GetMonth(r.Context(), c, c.UserID, year, month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// SaveEntries replaces the caller's entries for the month.
// PUT /api/timesheets/{year}/{month}
func (h *Handler) SaveEntries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var req SaveEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	entries := make([]timesheet.DayEntry, 0, len(req.Entries))
	for _, in := range req.Entries {
		e, err := in.toDomain()
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		entries = append(entries, e)
	}

	view, err := h.Service.SaveDraft(r.Context(), c, year, month, entries, req.Submit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// Submit submits the caller's month for approval.
// POST /api/timesheets/{year}/{month}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.Submit(r.Context(), c, year, month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// Upload accepts a multipart form with "file" (PDF), "total_hours_reported"
// and optional "submit".
// POST /api/timesheets/{year}/{month}/upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	// Role checks run before the form is read, in the order the service uses.
	mode := timesheet.EntryModeFor(c.Roles)
	if mode == timesheet.ModeNone {
		h.writeDomainError(w, r, &generic.ForbiddenError{Actor: c.UserID, Action: "upload"})
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if mode != timesheet.ModeUpload {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "entryMode", Message: "this account reports hours per day"})
		return
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	// Leave room for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "file", Message: "invalid multipart form: " + err.Error()})
		return
	}

	declared, err := generic.ParseHours(strings.TrimSpace(r.FormValue("total_hours_reported")))
	if err != nil {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "totalHoursReported", Message: "must be a number"})
		return
	}
	submit, _ := strconv.ParseBool(r.FormValue("submit"))

	f, hdr, err := r.FormFile("file")
	if err != nil {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		h.writeDomainError(w, r, &generic.ValidationError{Field: "file", Message: "could not read file"})
		return
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	upload := timesheet.Upload{Filename: hdr.Filename, ContentType: contentType, Data: data}

	view, err := h.Service.Upload(r.Context(), c, year, month, declared, upload, submit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// GetAttachment streams the caller's uploaded document.
// GET /api/timesheets/{year}/{month}/attachment
func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.streamAttachment(w, r, c, c.UserID)
}

// GetAudit returns the caller's transition history for the month.
// GET /api/timesheets/{year}/{month}/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.writeAudit(w, r, c, c.UserID)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListSummaries returns the latest month per non-admin user.
// GET /api/admin/timesheets?year=&month=&username=
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := timesheet.SummaryFilter{UsernameContains: strings.TrimSpace(q.Get("username"))}
	for name, dst := range map[string]**int{"year": &filter.Year, "month": &filter.Month} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				h.writeDomainError(w, r, &generic.ValidationError{Field: name, Message: "must be an integer"})
				return
			}
			*dst = &v
		}
	}

	rows, err := h.Service.ListMonthlySummaries(r.Context(), c, filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(rows))
}

// ListPending returns every SUBMITTED month.
// GET /api/admin/timesheets/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	rows, err := h.Service.ListPending(r.Context(), c)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(rows))
}

// GetUserMonth returns any user's month.
// GET /api/admin/timesheets/{userId}/{year}/{month}
func (h *Handler) GetUserMonth(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user := generic.UserID(chi.URLParam(r, "userId"))
	view, err := h.Service.GetMonth(r.Context(), c, user, year, month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// Transition applies approve, reject or pay.
// POST /api/admin/timesheets/{userId}/{year}/{month}/{event}
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user := generic.UserID(chi.URLParam(r, "userId"))
	event, valid := timesheet.ParseAdminEvent(chi.URLParam(r, "event"))
	if !valid {
		writeError(w, http.StatusNotFound, "Unknown event", fmt.Errorf("%q is not one of approve, reject, pay", chi.URLParam(r, "event")))
		return
	}

	var req TransitionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeDomainError(w, r, &generic.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
			return
		}
	}

	view, err := h.Service.AdminTransition(r.Context(), c, user, year, month, event, req.Comments)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

// GetUserAudit returns any user's transition history for the month.
// GET /api/admin/timesheets/{userId}/{year}/{month}/audit
func (h *Handler) GetUserAudit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.writeAudit(w, r, c, generic.UserID(chi.URLParam(r, "userId")))
}

// GetUserAttachment streams any user's uploaded document.
// GET /api/admin/timesheets/{userId}/{year}/{month}/attachment
func (h *Handler) GetUserAttachment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.streamAttachment(w, r, c, generic.UserID(chi.URLParam(r, "userId")))
}

func (h *Handler) writeAudit(w http.ResponseWriter, r *http.Request, c timesheet.Caller, user generic.UserID) {
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	entries, err := h.Service.AuditTrail(r.Context(), c, user, year, month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTOs(entries))
}

func (h *Handler) streamAttachment(w http.ResponseWriter, r *http.Request, c timesheet.Caller, user generic.UserID) {
	year, month, err := period(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	rc, err := h.Service.OpenAttachment(r.Context(), c, user, year, month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="timesheet-%s-%04d-%02d.pdf"`, user, year, month))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("attachment stream interrupted", zap.String("user", string(user)), zap.Error(err))
	}
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns holidays in [start, end]. Defaults to the current year.
// GET /api/holidays?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := generic.StartOfMonth(now.Year(), time.January)
	to := generic.EndOfMonth(now.Year(), time.December)

	q := r.URL.Query()
	for name, dst := range map[string]*generic.TimePoint{"start": &from, "end": &to} {
		if raw := q.Get(name); raw != "" {
			tp, err := generic.ParseDate(raw)
			if err != nil {
				h.writeDomainError(w, r, &generic.ValidationError{Field: name, Message: "expected YYYY-MM-DD"})
				return
			}
			*dst = tp
		}
	}

	hs, err := h.Service.ListHolidays(r.Context(), from, to)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]HolidayDTO, len(hs))
	for i, hol := range hs {
		out[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListHolidayTypes returns the tag catalog.
// GET /api/holidays/types
func (h *Handler) ListHolidayTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListHolidayTypes(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]HolidayTypeDTO, len(types))
	for i, t := range types {
		out[i] = HolidayTypeDTO{ID: int64(t.ID), Name: t.Name, Description: t.Description, IsGovernment: t.IsGovernment}
	}
	writeJSON(w, http.StatusOK, out)
}

// AddDefaultHolidays seeds the public holidays for a year (default: current).
// POST /api/admin/holidays/defaults?year=2025
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeDomainError(w, r, &generic.InvalidPeriodError{Reason: "year must be an integer"})
			return
		}
		year = v
	}
	added, err := h.Service.SeedHolidays(r.Context(), c, year)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeedHolidaysResponse{Year: year, Added: added})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and storage reachability.
// GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
