// Package service provides the core business service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cabina-live/cabina/internal/adapters/catalog"
	"github.com/cabina-live/cabina/internal/adapters/pubsub"
	"github.com/cabina-live/cabina/internal/adapters/repository"
	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/cooldown"
	"github.com/cabina-live/cabina/internal/domain/geo"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/internal/domain/prompt"
	"github.com/cabina-live/cabina/internal/domain/quota"
	"github.com/cabina-live/cabina/pkg/logger"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// Backend bundles the request store with the event/performer directory.
// Both in-memory and SQLite stores satisfy it.
type Backend interface {
	repository.Store
	repository.Directory
}

// Service wires the aggregation core to its adapters and implements the
// HTTP API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend       Backend
	cooldownStore cooldown.Store
	limiter       *cooldown.Limiter
	quota         *quota.Policy
	aggregator    *board.Aggregator
	orchestrator  *prompt.Orchestrator
	publisher     *pubsub.Publisher
	catalog       *catalog.Client

	// Configuration
	cooldownWindow   time.Duration
	pendingTTL       time.Duration
	geofenceRadiusKm float64
	quotaOpts        []quota.Option
	catalogOpts      []catalog.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the request store and directory backend.
func WithBackend(backend Backend) Option {
	return func(s *Service) {
		if backend != nil {
			s.backend = backend
		}
	}
}

// WithCooldownStore sets the cooldown state backend.
func WithCooldownStore(store cooldown.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.cooldownStore = store
		}
	}
}

// WithCooldownWindow sets the per-session submission cooldown.
func WithCooldownWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.cooldownWindow = window
		}
	}
}

// WithPendingPromptTTL sets how long an unanswered payment prompt keeps
// its staged submission.
func WithPendingPromptTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.pendingTTL = ttl
		}
	}
}

// WithGeofenceRadius sets the radius applied to events whose geofence has
// no explicit one.
func WithGeofenceRadius(radiusKm float64) Option {
	return func(s *Service) {
		if radiusKm > 0 {
			s.geofenceRadiusKm = radiusKm
		}
	}
}

// WithQuotaLimit overrides a tier's distinct-request limit.
func WithQuotaLimit(tier model.Tier, max int) Option {
	return func(s *Service) {
		s.quotaOpts = append(s.quotaOpts, quota.WithLimit(tier, max))
	}
}

// WithCatalogOptions passes options through to the catalog client.
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(s *Service) {
		s.catalogOpts = append(s.catalogOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cooldownWindow:   cooldown.DefaultWindow,
		pendingTTL:       prompt.DefaultTTL,
		geofenceRadiusKm: 1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting request board service...")

	if s.backend == nil {
		s.backend = repository.NewMemoryStore()
	}
	if s.cooldownStore == nil {
		s.cooldownStore = cooldown.NewMemoryStore()
	}
	s.limiter = cooldown.NewLimiter(
		cooldown.WithStore(s.cooldownStore),
		cooldown.WithWindow(s.cooldownWindow),
	)
	s.quota = quota.NewPolicy(s.quotaOpts...)
	s.publisher = pubsub.New(pubsub.WithLogger(s.logger.Named("pubsub")))
	s.aggregator = board.New(s.backend, s.backend, s.limiter, s.quota,
		board.WithPublisher(s.publisher),
		board.WithLogger(s.logger.Named("board")),
	)
	s.orchestrator = prompt.New(s.aggregator,
		prompt.WithTTL(s.pendingTTL),
		prompt.WithLogger(s.logger.Named("prompt")),
	)
	s.orchestrator.Start(ctx)
	s.catalog = catalog.NewClient(append(s.catalogOpts, catalog.WithLogger(s.logger.Named("catalog")))...)

	s.started = true
	s.logger.Info(ctx, "request board service started",
		logger.Duration("cooldown", s.cooldownWindow),
		logger.Duration("pendingTTL", s.pendingTTL),
		logger.Float64("geofenceRadiusKm", s.geofenceRadiusKm),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping request board service...")

	if s.orchestrator != nil {
		s.orchestrator.Stop()
	}
	if closer, ok := s.backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "request board service stopped")
}

// Submit runs a submission through the payment prompt decision and the
// aggregator. When the performer prompts for contributions, the submission
// is staged and the caller raises the prompt to the submitter.
func (s *Service) Submit(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (prompt.Decision, error) {
	ev, err := s.backend.Event(ctx, attempt.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return prompt.Decision{}, board.ErrEventNotAcceptingRequests
		}
		return prompt.Decision{}, fmt.Errorf("%w: %w", board.ErrStorageUnavailable, err)
	}

	perf, err := s.backend.Performer(ctx, ev.PerformerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return prompt.Decision{}, fmt.Errorf("%w: %w", board.ErrStorageUnavailable, err)
	}

	if prompt.ShouldPrompt(perf) {
		token, err := s.orchestrator.Begin(ctx, attempt, now)
		if err != nil {
			return prompt.Decision{}, err
		}
		return prompt.Decision{Prompted: true, Token: token, QRURL: perf.PaymentQRURL}, nil
	}

	result, err := s.aggregator.Submit(ctx, attempt, now)
	if err != nil {
		return prompt.Decision{}, err
	}
	return prompt.Decision{Result: result}, nil
}

// ResolvePrompt commits a staged submission with the submitter's choice.
func (s *Service) ResolvePrompt(ctx context.Context, token string, collaborate bool, now time.Time) (board.Result, error) {
	return s.orchestrator.Resolve(ctx, token, collaborate, now)
}

// Board returns the current ordered board for an event.
func (s *Service) Board(ctx context.Context, eventID string) ([]model.AggregatedRequest, error) {
	return s.aggregator.GetBoard(ctx, eventID)
}

// SubscribeBoard registers a live viewer. The returned channel carries the
// current snapshot immediately and a fresh one on every change.
func (s *Service) SubscribeBoard(ctx context.Context, eventID string) (string, <-chan []model.AggregatedRequest, error) {
	snapshot, err := s.aggregator.GetBoard(ctx, eventID)
	if err != nil {
		return "", nil, err
	}
	id, ch := s.publisher.Subscribe(eventID, snapshot)
	return id, ch, nil
}

// UnsubscribeBoard stops delivery for one viewer.
func (s *Service) UnsubscribeBoard(eventID, id string) {
	s.publisher.Unsubscribe(eventID, id)
}

// SearchTracks queries the external catalog.
func (s *Service) SearchTracks(ctx context.Context, keyword string) ([]model.Track, error) {
	return s.catalog.Search(ctx, keyword)
}

// VerifyLocation checks submitter coordinates against an event's geofence.
// Events without a geofence verify unconditionally.
func (s *Service) VerifyLocation(ctx context.Context, eventID string, lat, lon float64) (bool, error) {
	ev, err := s.backend.Event(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, board.ErrEventNotAcceptingRequests
		}
		return false, fmt.Errorf("%w: %w", board.ErrStorageUnavailable, err)
	}

	if ev.Geofence == nil {
		return true, nil
	}

	radius := ev.Geofence.RadiusKm
	if radius <= 0 {
		radius = s.geofenceRadiusKm
	}
	return geo.Verify(lat, lon, ev.Geofence.Lat, ev.Geofence.Lon, radius), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"cooldownSeconds":   int(s.cooldownWindow.Seconds()),
		"pendingTTLSeconds": int(s.pendingTTL.Seconds()),
	}

	if s.started {
		if n, err := s.backend.Count(context.Background()); err == nil {
			stats["trackedRequests"] = n
			metrics.UpdateTrackedRequests(n)
		}
		stats["subscribers"] = s.publisher.TotalSubscribers()
		stats["pendingPrompts"] = s.orchestrator.PendingCount()
	}

	return stats
}
