package timesheet

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// RULES - Policy constants applied at the write boundary
// =============================================================================

// Rules are the write-boundary limits. They are configuration, not per-timesheet state.
type Rules struct {
	Years             generic.YearRange
	MaxDailyHours     generic.Hours
	MaxNotesLength    int
	StandardDayHours  generic.Hours
	UploadTolerance   generic.Hours
	MaxUploadBytes    int64
	OvertimeThreshold generic.Hours
}

// DefaultRules mirrors the shipped configuration defaults.
func DefaultRules() Rules {
	return Rules{
		Years:             generic.DefaultYearRange,
		MaxDailyHours:     generic.NewHoursFromInt(24),
		MaxNotesLength:    100,
		StandardDayHours:  generic.NewHoursFromInt(8),
		UploadTolerance:   generic.NewHours(0.01),
		MaxUploadBytes:    10 << 20,
		OvertimeThreshold: generic.ZeroHours,
	}
}

// =============================================================================
// ENTRY VALIDATION
// =============================================================================

// ValidateEntries checks every entry a draft save would persist.
// knownTypes may be nil to skip the holiday type lookup.
func ValidateEntries(period generic.Period, entries []DayEntry, rules Rules, knownTypes map[generic.HolidayTypeID]bool) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		date := e.Date
		if !period.Contains(date) {
			return &generic.DateOutOfRangeError{Date: date, Period: period}
		}
		if seen[date.Key()] {
			return &generic.ValidationError{Field: "date", Date: &date, Message: "duplicate entry for day"}
		}
		seen[date.Key()] = true

		if e.HoursWorked.IsNegative() {
			return &generic.ValidationError{Field: "hoursWorked", Date: &date, Message: "must not be negative"}
		}
		if e.HoursWorked.GreaterThan(rules.MaxDailyHours) {
			return &generic.ValidationError{Field: "hoursWorked", Date: &date,
				Message: fmt.Sprintf("must not exceed %s", rules.MaxDailyHours)}
		}
		if e.SupportHours.IsNegative() {
			return &generic.ValidationError{Field: "supportHours", Date: &date, Message: "must not be negative"}
		}
		if e.HoursWorked.Add(e.SupportHours).GreaterThan(rules.MaxDailyHours) {
			return &generic.ValidationError{Field: "supportHours", Date: &date,
				Message: fmt.Sprintf("hours plus support hours must not exceed %s", rules.MaxDailyHours)}
		}
		if utf8.RuneCountInString(e.Notes) > rules.MaxNotesLength {
			return &generic.ValidationError{Field: "notes", Date: &date,
				Message: fmt.Sprintf("must be at most %d characters", rules.MaxNotesLength)}
		}
		if e.HolidayTypeID != nil && knownTypes != nil && !knownTypes[*e.HolidayTypeID] {
			return &generic.ValidationError{Field: "holidayTypeId", Date: &date,
				Message: fmt.Sprintf("unknown holiday type %d", *e.HolidayTypeID)}
		}
	}
	return nil
}

// =============================================================================
// UPLOAD VALIDATION
// =============================================================================

// Upload is the binary payload of an UPLOAD-mode submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

const pdfContentType = "application/pdf"

// ValidateUpload checks the document and the declared total against the month.
// The declared total must equal workdays * StandardDayHours within UploadTolerance.
func ValidateUpload(skeleton []DayEntry, declared generic.Hours, file Upload, rules Rules) error {
	if len(file.Data) == 0 {
		return &generic.ValidationError{Field: "file", Message: "file is empty"}
	}
	if rules.MaxUploadBytes > 0 && int64(len(file.Data)) > rules.MaxUploadBytes {
		return &generic.ValidationError{Field: "file",
			Message: fmt.Sprintf("file exceeds %d bytes", rules.MaxUploadBytes)}
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if ct != pdfContentType {
		return &generic.ValidationError{Field: "file", Message: "only PDF is allowed"}
	}
	if !declared.IsPositive() {
		return &generic.ValidationError{Field: "totalHoursReported", Message: "must be positive"}
	}

	workdays := CountWorkdays(skeleton)
	expected := rules.StandardDayHours.MulInt(workdays)
	if !declared.WithinTolerance(expected, rules.UploadTolerance) {
		return &generic.ValidationError{Field: "totalHoursReported",
			Message: fmt.Sprintf("reported hours (%s) do not match the expected work hours for the month (%s); expected workdays: %d",
				declared, expected, workdays)}
	}
	return nil
}

// validateRejectComments enforces the non-blank comment on rejection.
func validateRejectComments(comments string) error {
	if strings.TrimSpace(comments) == "" {
		return &generic.ValidationError{Field: "comments", Message: "required when rejecting a timesheet"}
	}
	return nil
}
