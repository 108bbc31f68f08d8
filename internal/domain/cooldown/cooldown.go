// Package cooldown gates how often a submitter session may have a
// submission accepted.
package cooldown

import (
	"context"
	"math"
	"time"
)

// DefaultWindow is the minimum time between two accepted submissions from
// the same session.
const DefaultWindow = 60 * time.Second

// Store persists the last accepted submission time per submitter session.
// State is scoped per session, shared across every event and track that
// session submits to.
type Store interface {
	// Last returns the last accepted submission time for a session.
	// ok is false when the session has never had a submission accepted.
	Last(ctx context.Context, session string) (t time.Time, ok bool, err error)

	// SetLast records an accepted submission time for a session.
	SetLast(ctx context.Context, session string, t time.Time) error
}

// Limiter decides whether a session may submit right now. Denial never
// extends the window; the remaining time is always recomputed from the
// stored last-acceptance timestamp.
type Limiter struct {
	store  Store
	window time.Duration
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithWindow sets the cooldown window.
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithStore sets the backing cooldown store.
func WithStore(store Store) Option {
	return func(l *Limiter) {
		if store != nil {
			l.store = store
		}
	}
}

// NewLimiter creates a Limiter with an in-memory store and the default
// 60 second window.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		store:  NewMemoryStore(),
		window: DefaultWindow,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// CanSubmit reports whether the session is past its cooldown window and,
// when it is not, how many whole seconds remain.
func (l *Limiter) CanSubmit(ctx context.Context, session string, now time.Time) (allowed bool, secondsRemaining int, err error) {
	last, ok, err := l.store.Last(ctx, session)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return true, 0, nil
	}

	elapsed := now.Sub(last)
	if elapsed >= l.window {
		return true, 0, nil
	}

	remaining := int(math.Ceil((l.window - elapsed).Seconds()))
	return false, remaining, nil
}

// RecordSubmission stores the acceptance time for a session. Called only
// after a submission has actually been committed.
func (l *Limiter) RecordSubmission(ctx context.Context, session string, now time.Time) error {
	return l.store.SetLast(ctx, session, now)
}

// Window returns the configured cooldown window.
func (l *Limiter) Window() time.Duration {
	return l.window
}
