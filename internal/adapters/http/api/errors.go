package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/prompt"
)

// Sentinel kinds for API errors.
var ErrBadRequest = errors.New("bad request")

// writeDomainError maps each rejection from the aggregation core to a
// distinct HTTP status, code and user-facing message. Storage faults all
// collapse into one generic retry message.
func writeDomainError(w http.ResponseWriter, err error) {
	var rateLimited *board.RateLimitedError
	var quotaExceeded *board.QuotaExceededError

	switch {
	case errors.Is(err, board.ErrEventNotAcceptingRequests):
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "event_not_accepting_requests",
			Message: "This event is not taking song requests right now.",
		})

	case errors.Is(err, board.ErrGeofenceViolation):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Code:    "geofence_violation",
			Message: "You must be at the event to request songs.",
		})

	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.SecondsRemaining))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Code:             "rate_limited",
			Message:          "Wait before requesting another song.",
			SecondsRemaining: rateLimited.SecondsRemaining,
		})

	case errors.As(err, &quotaExceeded):
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:        "quota_exceeded",
			Message:     "The request limit for this event has been reached.",
			MaxRequests: quotaExceeded.Max,
		})

	case errors.Is(err, prompt.ErrPendingNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    "pending_not_found",
			Message: "This request prompt has expired. Submit the song again.",
		})

	case errors.Is(err, board.ErrStorageUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Code:    "storage_unavailable",
			Message: "Something went wrong sending your song. Please try again.",
		})

	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "internal_error",
			Message: http.StatusText(http.StatusInternalServerError),
		})
	}
}
