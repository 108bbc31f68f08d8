// Package board owns the aggregated request set per event: dedup, merge,
// quota enforcement and change notification.
package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cabina-live/cabina/internal/adapters/repository"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// Store is the slice of the request repository the aggregator needs.
type Store interface {
	Get(ctx context.Context, eventID, trackID string) (model.AggregatedRequest, error)
	Upsert(ctx context.Context, req model.AggregatedRequest) error
	ListByEvent(ctx context.Context, eventID string) ([]model.AggregatedRequest, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

// Directory resolves the read-only event and performer records that gate
// submissions.
type Directory interface {
	Event(ctx context.Context, eventID string) (model.Event, error)
	Performer(ctx context.Context, performerID string) (model.Performer, error)
}

// RateLimiter gates submission attempts per submitter session.
type RateLimiter interface {
	CanSubmit(ctx context.Context, session string, now time.Time) (bool, int, error)
	RecordSubmission(ctx context.Context, session string, now time.Time) error
}

// QuotaPolicy bounds distinct aggregated requests per event.
type QuotaPolicy interface {
	MaxRequests(tier model.Tier) (max int, bounded bool)
}

// Publisher receives the full board snapshot after every change. Publish
// must never block on slow consumers.
type Publisher interface {
	Publish(eventID string, board []model.AggregatedRequest)
}

// Outcome distinguishes the two success paths of Submit.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeMerged  Outcome = "merged"
)

// Result carries the accepted submission's aggregated request so callers
// can present distinct confirmation messaging.
type Result struct {
	Outcome Outcome
	Request model.AggregatedRequest
}

// Aggregator is the central authority over an event's aggregated requests.
// The dedup/merge/quota read-check-write runs as an atomic unit under a
// per-event lock; submissions to different events never contend.
type Aggregator struct {
	store   Store
	dir     Directory
	limiter RateLimiter
	quota   QuotaPolicy
	pub     Publisher
	logger  logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPublisher sets the board change publisher.
func WithPublisher(pub Publisher) Option {
	return func(a *Aggregator) {
		if pub != nil {
			a.pub = pub
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Aggregator over the given collaborators.
func New(store Store, dir Directory, limiter RateLimiter, quota QuotaPolicy, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:   store,
		dir:     dir,
		limiter: limiter,
		quota:   quota,
		locks:   make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logger.Get().Named("board")
	}

	return a
}

// GetBoard returns the event's aggregated requests ordered by
// first-submission time ascending, ties broken by track id.
func (a *Aggregator) GetBoard(ctx context.Context, eventID string) ([]model.AggregatedRequest, error) {
	reqs, err := a.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	sortBoard(reqs)
	return reqs, nil
}

// Submit runs the full gate sequence and commits the submission as either
// a merge into an existing aggregated request or a new entry. All gate
// failures are reported before any mutation.
func (a *Aggregator) Submit(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (Result, error) {
	ev, perf, err := a.gate(ctx, attempt, now)
	if err != nil {
		return Result{}, err
	}

	lock := a.eventLock(attempt.EventID)
	lock.Lock()
	defer lock.Unlock()

	result, err := a.apply(ctx, attempt, perf, now)
	if err != nil {
		return Result{}, err
	}

	// Cooldown starts only on acceptance. A failed write here must not
	// undo the committed submission; log and move on.
	if err := a.limiter.RecordSubmission(ctx, attempt.SessionID, now); err != nil {
		a.logger.Warn(ctx, "failed to record cooldown",
			logger.String("session", attempt.SessionID),
			logger.Error(err),
		)
	}

	a.notify(ctx, ev.ID)
	metrics.RecordSubmissionAccepted(string(result.Outcome))
	return result, nil
}

// Precheck runs every gate without committing anything. The payment prompt
// orchestrator uses it for tentative acceptance before raising a prompt.
func (a *Aggregator) Precheck(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) error {
	ev, perf, err := a.gate(ctx, attempt, now)
	if err != nil {
		return err
	}

	lock := a.eventLock(ev.ID)
	lock.Lock()
	defer lock.Unlock()

	_, err = a.store.Get(ctx, attempt.EventID, attempt.Track.ID)
	switch {
	case err == nil:
		return nil // repeat of an existing track is quota-exempt
	case errors.Is(err, repository.ErrNotFound):
		return a.checkQuota(ctx, attempt.EventID, perf)
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}

// gate evaluates the deterministic pre-submission rejections that need no
// board state: event open, geofence, cooldown.
func (a *Aggregator) gate(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (model.Event, model.Performer, error) {
	ev, err := a.dir.Event(ctx, attempt.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// An event the directory does not know cannot accept requests.
			return model.Event{}, model.Performer{}, ErrEventNotAcceptingRequests
		}
		return model.Event{}, model.Performer{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !ev.Open() {
		metrics.RecordSubmissionRejected("not_accepting")
		return model.Event{}, model.Performer{}, ErrEventNotAcceptingRequests
	}

	// Location verification runs once, out of band; Submit only consumes
	// the cached boolean. Events without a geofence skip the gate.
	if ev.Geofence != nil && !attempt.LocationVerified {
		metrics.RecordSubmissionRejected("geofence")
		return model.Event{}, model.Performer{}, ErrGeofenceViolation
	}

	allowed, remaining, err := a.limiter.CanSubmit(ctx, attempt.SessionID, now)
	if err != nil {
		return model.Event{}, model.Performer{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !allowed {
		metrics.RecordSubmissionRejected("rate_limited")
		return model.Event{}, model.Performer{}, &RateLimitedError{SecondsRemaining: remaining}
	}

	perf, err := a.dir.Performer(ctx, ev.PerformerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, model.Performer{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return ev, perf, nil
}

// apply performs the dedup/merge/quota read-check-write. Callers hold the
// event lock.
func (a *Aggregator) apply(ctx context.Context, attempt model.SubmissionAttempt, perf model.Performer, now time.Time) (Result, error) {
	existing, err := a.store.Get(ctx, attempt.EventID, attempt.Track.ID)
	switch {
	case err == nil:
		existing.Merge(attempt.Message, attempt.Paid, now)
		if err := a.store.Upsert(ctx, existing); err != nil {
			metrics.RecordSubmissionRejected("storage")
			return Result{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return Result{Outcome: OutcomeMerged, Request: existing}, nil

	case errors.Is(err, repository.ErrNotFound):
		if err := a.checkQuota(ctx, attempt.EventID, perf); err != nil {
			return Result{}, err
		}
		created := model.NewAggregatedRequest(attempt.EventID, attempt.Track, attempt.Message, attempt.Paid, now)
		if err := a.store.Upsert(ctx, created); err != nil {
			metrics.RecordSubmissionRejected("storage")
			return Result{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return Result{Outcome: OutcomeCreated, Request: created}, nil

	default:
		metrics.RecordSubmissionRejected("storage")
		return Result{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}

// checkQuota rejects a new distinct entry once the event holds the tier's
// maximum. Repeats of existing tracks never reach this check.
func (a *Aggregator) checkQuota(ctx context.Context, eventID string, perf model.Performer) error {
	max, bounded := a.quota.MaxRequests(perf.Tier)
	if !bounded {
		return nil
	}
	n, err := a.store.CountByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if n >= max {
		metrics.RecordSubmissionRejected("quota")
		return &QuotaExceededError{Max: max}
	}
	return nil
}

// notify pushes the fresh snapshot to subscribers. Runs under the event
// lock so snapshot order matches commit order; Publish itself never blocks.
func (a *Aggregator) notify(ctx context.Context, eventID string) {
	if a.pub == nil {
		return
	}
	reqs, err := a.store.ListByEvent(ctx, eventID)
	if err != nil {
		a.logger.Error(ctx, "failed to load board for publish",
			logger.String("event", eventID),
			logger.Error(err),
		)
		return
	}
	sortBoard(reqs)
	a.pub.Publish(eventID, reqs)
}

func (a *Aggregator) eventLock(eventID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[eventID] = lock
	}
	return lock
}

func sortBoard(reqs []model.AggregatedRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].FirstRequestedAt.Equal(reqs[j].FirstRequestedAt) {
			return reqs[i].TrackID < reqs[j].TrackID
		}
		return reqs[i].FirstRequestedAt.Before(reqs[j].FirstRequestedAt)
	})
}
