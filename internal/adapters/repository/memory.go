package repository

import (
	"context"
	"sync"
	"time"

	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// MemoryStore implements Store and Directory with in-process maps. It is
// the default backend and the one tests run against.
type MemoryStore struct {
	mu         sync.RWMutex
	requests   map[string]map[string]model.AggregatedRequest // event id -> track id
	events     map[string]model.Event
	performers map[string]model.Performer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:   make(map[string]map[string]model.AggregatedRequest),
		events:     make(map[string]model.Event),
		performers: make(map[string]model.Performer),
	}
}

func (s *MemoryStore) Get(_ context.Context, eventID, trackID string) (model.AggregatedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[eventID][trackID]
	if !ok {
		return model.AggregatedRequest{}, ErrNotFound
	}
	return req.Clone(), nil
}

func (s *MemoryStore) Upsert(_ context.Context, req model.AggregatedRequest) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	byTrack, ok := s.requests[req.EventID]
	if !ok {
		byTrack = make(map[string]model.AggregatedRequest)
		s.requests[req.EventID] = byTrack
	}
	byTrack[req.TrackID] = req.Clone()
	return nil
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID string) ([]model.AggregatedRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byTrack := s.requests[eventID]
	out := make([]model.AggregatedRequest, 0, len(byTrack))
	for _, req := range byTrack {
		out = append(out, req.Clone())
	}
	return out, nil
}

func (s *MemoryStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests[eventID]), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, byTrack := range s.requests {
		n += len(byTrack)
	}
	return n, nil
}

func (s *MemoryStore) Event(_ context.Context, eventID string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[eventID]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return ev, nil
}

func (s *MemoryStore) Performer(_ context.Context, performerID string) (model.Performer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.performers[performerID]
	if !ok {
		return model.Performer{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SaveEvent(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

func (s *MemoryStore) SavePerformer(_ context.Context, p model.Performer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performers[p.ID] = p
	return nil
}
