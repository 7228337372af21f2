package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/generic"
)

// statusFor maps the error taxonomy onto HTTP statuses.
//
//	InvalidPeriod, DateOutOfRange, ValidationFailed -> 400
//	Forbidden                                       -> 403
//	NotFound                                        -> 404
//	InvalidTransition, Conflict                     -> 409
//	UpstreamUnavailable, deadline exceeded          -> 503
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrForbidden):
		return http.StatusForbidden
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrInvalidTransition), errors.Is(err, generic.ErrConflict):
		return http.StatusConflict
	case generic.IsRetryable(err), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, generic.ErrForbidden):
		return "forbidden"
	case errors.Is(err, generic.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, generic.ErrDateOutOfRange):
		return "date_out_of_range"
	case errors.Is(err, generic.ErrValidationFailed):
		return "validation_failed"
	case generic.IsNotFound(err):
		return "not_found"
	case errors.Is(err, generic.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, generic.ErrConflict):
		return "conflict"
	case generic.IsRetryable(err), errors.Is(err, context.Canceled):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// writeDomainError renders err with its mapped status and the field/date
// details a caller needs to correct the input.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: codeFor(err)}

	var verr *generic.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
		if verr.Date != nil {
			resp.Date = verr.Date.Key()
		}
	}
	var derr *generic.DateOutOfRangeError
	if errors.As(err, &derr) {
		resp.Field = "date"
		resp.Date = derr.Date.Key()
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status >= 500 {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		h.Logger.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.String("code", resp.Code),
			zap.Error(err),
		)
		if status == http.StatusForbidden {
			resp.Error = "forbidden"
		}
	}
	writeJSON(w, status, resp)
}
