/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the timesheet domain model from the external API contract:
  - Hours travel as numbers; decimal precision is kept on input
  - Dates travel as YYYY-MM-DD strings
  - Timestamps travel as RFC 3339 strings

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Month:      MonthViewDTO, DayEntryDTO, AggregateDTO
  Writes:     SaveEntriesRequest, DayEntryInput, TransitionRequest
  Admin:      SummaryDTO, AuditEntryDTO
  Holidays:   HolidayDTO, HolidayTypeDTO, SeedHolidaysResponse

VALIDATION:
  Validation is done by the timesheet service, not in DTOs. DTOs are pure
  data carriers; conversion only rejects unparseable dates.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// DayEntryInput is one day in a save request. Hours accept numbers or decimal strings.
type DayEntryInput struct {
	Date          string          `json:"date"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	SupportHours  decimal.Decimal `json:"support_hours"`
	HolidayTypeID *int64          `json:"holiday_type_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// SaveEntriesRequest replaces the month's entries; Submit also submits it.
type SaveEntriesRequest struct {
	Entries []DayEntryInput `json:"entries"`
	Submit  bool            `json:"submit"`
}

// TransitionRequest carries reviewer comments for approve/reject/pay.
type TransitionRequest struct {
	Comments string `json:"comments"`
}

func (in DayEntryInput) toDomain() (timesheet.DayEntry, error) {
	date, err := generic.ParseDate(in.Date)
	if err != nil {
		return timesheet.DayEntry{}, &generic.ValidationError{Field: "date", Message: "expected YYYY-MM-DD, got " + in.Date}
	}
	e := timesheet.DayEntry{
		Date:         date,
		HoursWorked:  generic.Hours{Value: in.HoursWorked},
		SupportHours: generic.Hours{Value: in.SupportHours},
		Notes:        in.Notes,
	}
	if in.HolidayTypeID != nil {
		id := generic.HolidayTypeID(*in.HolidayTypeID)
		e.HolidayTypeID = &id
	}
	return e, nil
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type HolidayDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	IsGovernment bool   `json:"is_government"`
	TypeID       *int64 `json:"type_id,omitempty"`
}

type HolidayTypeDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsGovernment bool   `json:"is_government"`
}

type DayEntryDTO struct {
	Date          string      `json:"date"`
	Weekday       string      `json:"weekday"`
	HoursWorked   float64     `json:"hours_worked"`
	SupportHours  float64     `json:"support_hours"`
	HolidayTypeID *int64      `json:"holiday_type_id,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	IsWeekend     bool        `json:"is_weekend"`
	Holiday       *HolidayDTO `json:"holiday,omitempty"`
}

type AggregateDTO struct {
	TotalHours           float64 `json:"total_hours"`
	StandardHours        float64 `json:"standard_hours"`
	WeekendHours         float64 `json:"weekend_hours"`
	HolidayHours         float64 `json:"holiday_hours"`
	OvertimeHours        float64 `json:"overtime_hours"`
	SupportHours         float64 `json:"support_hours"`
	FilledWorkdays       int     `json:"filled_workdays"`
	TotalWorkdays        int     `json:"total_workdays"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsComplete           bool    `json:"is_complete"`
}

// MonthViewDTO is the response of every month read and write.
type MonthViewDTO struct {
	UserID             string        `json:"user_id"`
	Year               int           `json:"year"`
	Month              int           `json:"month"`
	MonthName          string        `json:"month_name"`
	Status             string        `json:"status"`
	EntryMode          string        `json:"entry_mode"`
	Editable           bool          `json:"editable"`
	Entries            []DayEntryDTO `json:"entries"`
	Aggregate          AggregateDTO  `json:"aggregate"`
	TotalHoursReported *float64      `json:"total_hours_reported,omitempty"`
	HasAttachment      bool          `json:"has_attachment"`
	SubmittedAt        *string       `json:"submitted_at,omitempty"`
	ApprovedAt         *string       `json:"approved_at,omitempty"`
	PaidAt             *string       `json:"paid_at,omitempty"`
	ReviewedBy         string        `json:"reviewed_by,omitempty"`
	Comments           string        `json:"comments,omitempty"`
	Version            int           `json:"version"`
}

type SummaryDTO struct {
	UserID       string       `json:"user_id"`
	Username     string       `json:"username"`
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	MonthName    string       `json:"month_name"`
	Status       string       `json:"status"`
	EntryMode    string       `json:"entry_mode"`
	EntriesCount int          `json:"entries_count"`
	Aggregate    AggregateDTO `json:"aggregate"`
}

type AuditEntryDTO struct {
	ID       string `json:"id"`
	At       string `json:"at"`
	ActorID  string `json:"actor_id"`
	UserID   string `json:"user_id"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Action   string `json:"action"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Comments string `json:"comments,omitempty"`
}

type SeedHolidaysResponse struct {
	Year  int `json:"year"`
	Added int `json:"added"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Date    string `json:"date,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	dto := HolidayDTO{ID: h.ID, Date: h.Date.Key(), Name: h.Name, IsGovernment: h.IsGovernment}
	if h.TypeID != nil {
		id := int64(*h.TypeID)
		dto.TypeID = &id
	}
	return dto
}

func toDayEntryDTO(d timesheet.DayEntry) DayEntryDTO {
	dto := DayEntryDTO{
		Date:         d.Date.Key(),
		Weekday:      d.Date.Weekday().String(),
		HoursWorked:  d.HoursWorked.Float64(),
		SupportHours: d.SupportHours.Float64(),
		Notes:        d.Notes,
		IsWeekend:    d.IsWeekend,
	}
	if d.HolidayTypeID != nil {
		id := int64(*d.HolidayTypeID)
		dto.HolidayTypeID = &id
	}
	if d.Holiday != nil {
		h := toHolidayDTO(*d.Holiday)
		dto.Holiday = &h
	}
	return dto
}

func toAggregateDTO(a timesheet.Aggregate) AggregateDTO {
	return AggregateDTO{
		TotalHours:           a.TotalHours.Float64(),
		StandardHours:        a.StandardHours.Float64(),
		WeekendHours:         a.WeekendHours.Float64(),
		HolidayHours:         a.HolidayHours.Float64(),
		OvertimeHours:        a.OvertimeHours.Float64(),
		SupportHours:         a.SupportHours.Float64(),
		FilledWorkdays:       a.FilledWorkdays,
		TotalWorkdays:        a.TotalWorkdays,
		CompletionPercentage: decimal.NewFromFloat(a.CompletionPercentage).Round(2).InexactFloat64(),
		IsComplete:           a.IsComplete(),
	}
}

func toMonthViewDTO(v timesheet.MonthView) MonthViewDTO {
	ts := v.Timesheet
	dto := MonthViewDTO{
		UserID:        string(v.UserID),
		Year:          v.Year,
		Month:         v.Month,
		MonthName:     time.Month(v.Month).String(),
		Status:        string(v.Status),
		EntryMode:     string(v.EntryMode),
		Editable:      v.Status.IsEditable(),
		Entries:       make([]DayEntryDTO, len(v.Days)),
		Aggregate:     toAggregateDTO(v.Aggregate),
		HasAttachment: ts.AttachmentRef != "",
		SubmittedAt:   formatTime(ts.SubmittedAt),
		ApprovedAt:    formatTime(ts.ApprovedAt),
		PaidAt:        formatTime(ts.PaidAt),
		ReviewedBy:    string(ts.ReviewedBy),
		Comments:      ts.Comments,
		Version:       ts.Version,
	}
	for i, d := range v.Days {
		dto.Entries[i] = toDayEntryDTO(d)
	}
	if ts.TotalHoursReported != nil {
		f := ts.TotalHoursReported.Float64()
		dto.TotalHoursReported = &f
	}
	return dto
}

func toSummaryDTOs(rows []timesheet.Summary) []SummaryDTO {
	out := make([]SummaryDTO, len(rows))
	for i, s := range rows {
		out[i] = SummaryDTO{
			UserID:       string(s.UserID),
			Username:     s.Username,
			Year:         s.Year,
			Month:        s.Month,
			MonthName:    s.MonthName(),
			Status:       string(s.Status),
			EntryMode:    string(s.EntryMode),
			EntriesCount: s.EntriesCount,
			Aggregate:    toAggregateDTO(s.Aggregate),
		}
	}
	return out
}

func toAuditDTOs(entries []generic.AuditEntry) []AuditEntryDTO {
	out := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryDTO{
			ID:       e.ID,
			At:       e.At.UTC().Format(time.RFC3339),
			ActorID:  string(e.ActorID),
			UserID:   string(e.UserID),
			Year:     e.Year,
			Month:    e.Month,
			Action:   string(e.Action),
			From:     e.From,
			To:       e.To,
			Comments: e.Comments,
		}
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
