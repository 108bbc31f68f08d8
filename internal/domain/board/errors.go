package board

import (
	"errors"
	"fmt"
)

// Sentinel kinds for deterministic pre-submission rejections.
var (
	ErrEventNotAcceptingRequests = errors.New("event is not accepting requests")
	ErrGeofenceViolation         = errors.New("submitter is outside the event geofence")
	ErrStorageUnavailable        = errors.New("request storage unavailable")
)

// RateLimitedError is returned while a session is inside its cooldown
// window. SecondsRemaining is recomputed on every attempt.
type RateLimitedError struct {
	SecondsRemaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %ds", e.SecondsRemaining)
}

// QuotaExceededError is returned when an event already holds the maximum
// number of distinct aggregated requests for its performer's tier.
type QuotaExceededError struct {
	Max int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("event request quota of %d reached", e.Max)
}
