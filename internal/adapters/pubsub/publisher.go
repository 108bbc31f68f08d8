// Package pubsub fans out board snapshots to the subscribed viewers of an
// event.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// subscriber holds a 1-deep coalescing channel. When the subscriber lags,
// the pending snapshot is replaced by the newer one, so delivery is always
// monotonic and never blocks the publisher or other subscribers.
type subscriber struct {
	ch chan []model.AggregatedRequest
}

// Publisher keeps a per-event registry of subscribers and pushes the full
// current board to each of them on every change.
type Publisher struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*subscriber // event id -> subscriber id
	logger logger.Logger
}

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates an empty Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		subs: make(map[string]map[string]*subscriber),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named("pubsub")
	}

	return p
}

// Subscribe registers a viewer of an event. The current snapshot is
// delivered immediately; every later change delivers a fresh one. The
// returned id is the handle for Unsubscribe.
func (p *Publisher) Subscribe(eventID string, current []model.AggregatedRequest) (string, <-chan []model.AggregatedRequest) {
	sub := &subscriber{ch: make(chan []model.AggregatedRequest, 1)}
	sub.ch <- current

	id := uuid.NewString()
	p.mu.Lock()
	byID, ok := p.subs[eventID]
	if !ok {
		byID = make(map[string]*subscriber)
		p.subs[eventID] = byID
	}
	byID[id] = sub
	total := p.total()
	p.mu.Unlock()

	metrics.UpdateBoardSubscribers(total)
	p.logger.Debug(context.Background(), "subscriber added",
		logger.String("event", eventID),
		logger.String("subscriber", id),
	)
	return id, sub.ch
}

// Unsubscribe stops delivery for one subscriber and closes its channel.
func (p *Publisher) Unsubscribe(eventID, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byID, ok := p.subs[eventID]
	if !ok {
		return
	}
	sub, ok := byID[id]
	if !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(p.subs, eventID)
	}
	close(sub.ch)
	metrics.UpdateBoardSubscribers(p.total())
}

// Publish delivers the snapshot to every subscriber of the event. A full
// subscriber buffer is drained first so the latest snapshot wins; nothing
// here ever blocks.
func (p *Publisher) Publish(eventID string, board []model.AggregatedRequest) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, sub := range p.subs[eventID] {
		select {
		case sub.ch <- board:
		default:
			select {
			case <-sub.ch:
				metrics.RecordSnapshotCoalesced()
			default:
			}
			select {
			case sub.ch <- board:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of subscribers for an event.
func (p *Publisher) SubscriberCount(eventID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[eventID])
}

// TotalSubscribers returns the number of subscribers across all events.
func (p *Publisher) TotalSubscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total()
}

// total must be called with the lock held.
func (p *Publisher) total() int {
	n := 0
	for _, byID := range p.subs {
		n += len(byID)
	}
	return n
}
