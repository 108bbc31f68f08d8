package cooldown

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps per-session timestamps in a map. Sessions are
// browser-scoped identifiers so the set stays small; no eviction.
type memoryStore struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

// NewMemoryStore creates an in-memory cooldown store.
func NewMemoryStore() Store {
	return &memoryStore{last: make(map[string]time.Time)}
}

func (s *memoryStore) Last(_ context.Context, session string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.last[session]
	return t, ok, nil
}

func (s *memoryStore) SetLast(_ context.Context, session string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[session] = t
	return nil
}
