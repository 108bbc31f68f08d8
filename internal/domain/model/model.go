// Package model contains domain models passed between layers.
package model

import "time"

// EventState describes where an event is in its lifecycle.
type EventState string

const (
	EventScheduled EventState = "scheduled"
	EventLive      EventState = "live"
	EventEnded     EventState = "ended"
)

// Tier is a performer's subscription level. It bounds the number of
// distinct aggregated requests an event may accumulate.
type Tier string

const (
	Tier1     Tier = "tier1"
	Tier2     Tier = "tier2"
	Tier3     Tier = "tier3"
	TierOther Tier = "other"
)

// Geofence is a circular area around an event's declared coordinates
// within which submissions are permitted.
type Geofence struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// Event is a performance an audience submits requests to. Events are owned
// by an external system; this core only reads them.
type Event struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Venue           string     `json:"venue"`
	State           EventState `json:"state"`
	Geofence        *Geofence  `json:"geofence,omitempty"`
	PerformerID     string     `json:"performer_id"`
	AcceptsRequests bool       `json:"accepts_requests"`
}

// Open reports whether the event currently admits submissions.
func (e Event) Open() bool {
	return e.AcceptsRequests && e.State == EventLive
}

// Performer holds the subset of a performer profile the core consumes.
// Owned externally; read-only here.
type Performer struct {
	ID               string `json:"id"`
	Tier             Tier   `json:"tier"`
	PromptForPayment bool   `json:"prompt_for_payment"`
	PaymentQRURL     string `json:"payment_qr_url,omitempty"`
}

// Track is a catalog track snapshot. Immutable; never persisted beyond
// being embedded into an AggregatedRequest.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	CoverURL   string `json:"cover_url"`
	PreviewURL string `json:"preview_url"`
}

// Message is one submitter note attached to an aggregated request.
type Message struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// AggregatedRequest is one deduplicated, countable song request for a given
// event and track. Key is (EventID, TrackID), unique per event. Count only
// grows and the paid flag never reverts to false.
type AggregatedRequest struct {
	EventID          string    `json:"event_id"`
	TrackID          string    `json:"track_id"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist"`
	CoverURL         string    `json:"cover_url"`
	PreviewURL       string    `json:"preview_url"`
	FirstRequestedAt time.Time `json:"first_requested_at"`
	Count            int       `json:"count"`
	Messages         []Message `json:"messages"`
	Paid             bool      `json:"paid"`
}

// NewAggregatedRequest creates the first aggregated request for a track.
func NewAggregatedRequest(eventID string, track Track, message string, paid bool, now time.Time) AggregatedRequest {
	r := AggregatedRequest{
		EventID:          eventID,
		TrackID:          track.ID,
		Title:            track.Title,
		Artist:           track.Artist,
		CoverURL:         track.CoverURL,
		PreviewURL:       track.PreviewURL,
		FirstRequestedAt: now,
		Count:            1,
		Paid:             paid,
	}
	if message != "" {
		r.Messages = []Message{{Text: message, At: now}}
	}
	return r
}

// Merge folds a repeat submission of the same track into the request:
// the counter increments, a non-empty message is appended, and a paid
// submission flips the flag without ever clearing it.
func (r *AggregatedRequest) Merge(message string, paid bool, now time.Time) {
	r.Count++
	if message != "" {
		r.Messages = append(r.Messages, Message{Text: message, At: now})
	}
	if paid {
		r.Paid = true
	}
}

// Clone returns a deep copy safe to hand out to subscribers.
func (r AggregatedRequest) Clone() AggregatedRequest {
	out := r
	if len(r.Messages) > 0 {
		out.Messages = make([]Message, len(r.Messages))
		copy(out.Messages, r.Messages)
	}
	return out
}

// SubmissionAttempt is the ephemeral input of a single submission call.
// It is never persisted.
type SubmissionAttempt struct {
	SessionID        string
	EventID          string
	Track            Track
	Message          string
	Paid             bool
	LocationVerified bool
}
