// Package repository defines the persistent store contracts for aggregated
// requests and the read-only event/performer directory.
package repository

import (
	"context"
	"errors"

	"github.com/cabina-live/cabina/internal/domain/model"
)

// Sentinel kinds for store errors.
var ErrNotFound = errors.New("not found")

// Store is a document-style store for aggregated requests keyed by
// (event id, track id). Records hold the full durable contract: track
// snapshot, first-submission time, count, ordered messages, paid flag.
type Store interface {
	// Get returns the aggregated request for one event/track pair.
	// Returns ErrNotFound when no submission for the pair exists yet.
	Get(ctx context.Context, eventID, trackID string) (model.AggregatedRequest, error)

	// Upsert writes the record, replacing any existing one for its key.
	Upsert(ctx context.Context, req model.AggregatedRequest) error

	// ListByEvent returns every aggregated request for an event, in no
	// particular order.
	ListByEvent(ctx context.Context, eventID string) ([]model.AggregatedRequest, error)

	// CountByEvent returns the number of distinct aggregated requests
	// for an event.
	CountByEvent(ctx context.Context, eventID string) (int, error)

	// Count returns the number of aggregated requests across all events.
	Count(ctx context.Context) (int, error)
}

// Directory provides read access to event and performer records. Both are
// owned by an external system; the core never mutates them, but stores
// expose Save methods so deployments and tests can provision them.
type Directory interface {
	Event(ctx context.Context, eventID string) (model.Event, error)
	Performer(ctx context.Context, performerID string) (model.Performer, error)

	SaveEvent(ctx context.Context, ev model.Event) error
	SavePerformer(ctx context.Context, p model.Performer) error
}
