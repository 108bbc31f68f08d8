// Package prompt interposes an optional contribution prompt between a
// gated submission and its commit.
package prompt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// DefaultTTL is how long a pending prompt waits for the submitter's choice
// before it is dropped without committing anything.
const DefaultTTL = 5 * time.Minute

const sweepInterval = 30 * time.Second

// ErrPendingNotFound is returned when a prompt token is unknown or has
// already expired.
var ErrPendingNotFound = errors.New("pending submission not found")

// Committer is the slice of the aggregator the orchestrator drives.
type Committer interface {
	Precheck(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) error
	Submit(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (board.Result, error)
}

// Decision is the outcome of a submission entering the prompt flow.
// When Prompted is true the submission is staged and Result is empty;
// the caller raises the prompt and later calls Resolve with Token.
type Decision struct {
	Prompted bool
	Token    string
	QRURL    string
	Result   board.Result
}

type pending struct {
	attempt  model.SubmissionAttempt
	deadline time.Time
}

// Orchestrator stages tentatively accepted submissions until the submitter
// accepts or declines the contribution prompt. Abandoned prompts expire
// and consume no quota or cooldown.
type Orchestrator struct {
	committer Committer
	ttl       time.Duration
	logger    logger.Logger

	mu      sync.Mutex
	pending map[string]pending

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithTTL sets how long a pending prompt survives without a choice.
func WithTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator committing through the given aggregator.
func New(committer Committer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		committer: committer,
		ttl:       DefaultTTL,
		pending:   make(map[string]pending),
		stopCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.Get().Named("prompt")
	}

	return o
}

// ShouldPrompt reports whether the performer opted into payment prompts
// and has a QR reference configured.
func ShouldPrompt(p model.Performer) bool {
	return p.PromptForPayment && p.PaymentQRURL != ""
}

// Begin tentatively accepts the submission: every gate is evaluated, but
// nothing is committed, recorded against the cooldown, or counted toward
// the quota. A token identifying the staged submission is returned.
func (o *Orchestrator) Begin(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (string, error) {
	if err := o.committer.Precheck(ctx, attempt, now); err != nil {
		return "", err
	}

	token := uuid.NewString()
	o.mu.Lock()
	o.pending[token] = pending{attempt: attempt, deadline: now.Add(o.ttl)}
	o.mu.Unlock()

	metrics.RecordPromptStarted()
	return token, nil
}

// Resolve commits a staged submission with the submitter's choice. Both
// accept and decline commit; only abandonment does not. The gates run
// again inside Submit, so a board that filled up or a cooldown that
// started elsewhere in the meantime still rejects cleanly.
func (o *Orchestrator) Resolve(ctx context.Context, token string, collaborate bool, now time.Time) (board.Result, error) {
	o.mu.Lock()
	p, ok := o.pending[token]
	if ok {
		delete(o.pending, token)
	}
	o.mu.Unlock()

	if !ok || now.After(p.deadline) {
		return board.Result{}, ErrPendingNotFound
	}

	choice := "decline"
	if collaborate {
		choice = "collaborate"
	}
	metrics.RecordPromptResolved(choice)

	attempt := p.attempt
	attempt.Paid = collaborate
	return o.committer.Submit(ctx, attempt, now)
}

// PendingCount returns the number of staged submissions awaiting a choice.
func (o *Orchestrator) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Start runs the expiry sweep until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-o.stopCh:
				return
			case <-ticker.C:
				o.sweep(time.Now())
			}
		}
	}()
}

// Stop terminates the expiry sweep.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
}

func (o *Orchestrator) sweep(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for token, p := range o.pending {
		if now.After(p.deadline) {
			delete(o.pending, token)
			metrics.RecordPromptExpired()
		}
	}
}
