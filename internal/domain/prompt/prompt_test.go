package prompt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/adapters/repository"
	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/cooldown"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/internal/domain/prompt"
	"github.com/cabina-live/cabina/internal/domain/quota"
	"github.com/cabina-live/cabina/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newAggregator() (*board.Aggregator, *repository.MemoryStore, *cooldown.Limiter) {
	store := repository.NewMemoryStore()
	limiter := cooldown.NewLimiter()
	agg := board.New(store, store, limiter, quota.NewPolicy())
	return agg, store, limiter
}

func seedLiveEvent(store *repository.MemoryStore) {
	_ = store.SaveEvent(context.Background(), model.Event{
		ID:              "ev-1",
		State:           model.EventLive,
		AcceptsRequests: true,
		PerformerID:     "dj-1",
	})
	_ = store.SavePerformer(context.Background(), model.Performer{
		ID:               "dj-1",
		Tier:             model.Tier3,
		PromptForPayment: true,
		PaymentQRURL:     "https://pay.example/dj-1",
	})
}

func stagedAttempt() model.SubmissionAttempt {
	return model.SubmissionAttempt{
		SessionID: "s-1",
		EventID:   "ev-1",
		Track:     model.Track{ID: "tr-1", Title: "Song One", Artist: "Artist One"},
		Message:   "for the dance floor",
	}
}

func TestShouldPrompt(t *testing.T) {
	Convey("Given performer profiles", t, func() {
		Convey("When the prompt is enabled with a QR reference", func() {
			p := model.Performer{PromptForPayment: true, PaymentQRURL: "https://pay.example/x"}
			So(prompt.ShouldPrompt(p), ShouldBeTrue)
		})

		Convey("When the prompt is enabled without a QR reference", func() {
			p := model.Performer{PromptForPayment: true}
			So(prompt.ShouldPrompt(p), ShouldBeFalse)
		})

		Convey("When the prompt is disabled", func() {
			p := model.Performer{PaymentQRURL: "https://pay.example/x"}
			So(prompt.ShouldPrompt(p), ShouldBeFalse)
		})
	})
}

func TestOrchestrator(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	Convey("Given an orchestrator over a live event", t, func() {
		agg, store, limiter := newAggregator()
		seedLiveEvent(store)
		o := prompt.New(agg)

		Convey("When a submission is staged", func() {
			token, err := o.Begin(ctx, stagedAttempt(), base)

			Convey("Then a token should be issued without committing", func() {
				So(err, ShouldBeNil)
				So(token, ShouldNotBeEmpty)
				So(o.PendingCount(), ShouldEqual, 1)

				reqs, _ := agg.GetBoard(ctx, "ev-1")
				So(reqs, ShouldBeEmpty)
			})

			Convey("Then the cooldown should not have started", func() {
				allowed, _, _ := limiter.CanSubmit(ctx, "s-1", base.Add(time.Second))
				So(allowed, ShouldBeTrue)
			})

			Convey("And the submitter collaborates", func() {
				result, err := o.Resolve(ctx, token, true, base.Add(30*time.Second))

				Convey("Then the submission should commit as paid", func() {
					So(err, ShouldBeNil)
					So(result.Outcome, ShouldEqual, board.OutcomeCreated)
					So(result.Request.Paid, ShouldBeTrue)
					So(o.PendingCount(), ShouldEqual, 0)
				})
			})

			Convey("And the submitter declines", func() {
				result, err := o.Resolve(ctx, token, false, base.Add(30*time.Second))

				Convey("Then the submission should still commit, unpaid", func() {
					So(err, ShouldBeNil)
					So(result.Outcome, ShouldEqual, board.OutcomeCreated)
					So(result.Request.Paid, ShouldBeFalse)
				})
			})

			Convey("And the submitter abandons the prompt", func() {
				Convey("Then nothing should ever commit", func() {
					reqs, _ := agg.GetBoard(ctx, "ev-1")
					So(reqs, ShouldBeEmpty)

					allowed, _, _ := limiter.CanSubmit(ctx, "s-1", base.Add(time.Second))
					So(allowed, ShouldBeTrue)
				})
			})

			Convey("And the token is resolved twice", func() {
				_, err := o.Resolve(ctx, token, true, base.Add(time.Second))
				So(err, ShouldBeNil)

				_, err = o.Resolve(ctx, token, true, base.Add(2*time.Second))

				Convey("Then the second resolve should miss", func() {
					So(errors.Is(err, prompt.ErrPendingNotFound), ShouldBeTrue)
				})
			})

			Convey("And the prompt outlives its TTL", func() {
				_, err := o.Resolve(ctx, token, true, base.Add(prompt.DefaultTTL+time.Second))

				Convey("Then the resolve should miss", func() {
					So(errors.Is(err, prompt.ErrPendingNotFound), ShouldBeTrue)
				})
			})
		})

		Convey("When resolving an unknown token", func() {
			_, err := o.Resolve(ctx, "no-such-token", true, base)

			Convey("Then it should report pending not found", func() {
				So(errors.Is(err, prompt.ErrPendingNotFound), ShouldBeTrue)
			})
		})

		Convey("When the staged submission would violate a gate", func() {
			ev, _ := store.Event(ctx, "ev-1")
			ev.AcceptsRequests = false
			_ = store.SaveEvent(ctx, ev)

			_, err := o.Begin(ctx, stagedAttempt(), base)

			Convey("Then Begin should reject up front", func() {
				So(errors.Is(err, board.ErrEventNotAcceptingRequests), ShouldBeTrue)
				So(o.PendingCount(), ShouldEqual, 0)
			})
		})

		Convey("When the event closes between Begin and Resolve", func() {
			token, err := o.Begin(ctx, stagedAttempt(), base)
			So(err, ShouldBeNil)

			ev, _ := store.Event(ctx, "ev-1")
			ev.AcceptsRequests = false
			_ = store.SaveEvent(ctx, ev)

			_, err = o.Resolve(ctx, token, true, base.Add(time.Second))

			Convey("Then the commit should fail the gate", func() {
				So(errors.Is(err, board.ErrEventNotAcceptingRequests), ShouldBeTrue)
			})
		})
	})

	Convey("Given an orchestrator with a short TTL", t, func() {
		agg, store, _ := newAggregator()
		seedLiveEvent(store)
		o := prompt.New(agg, prompt.WithTTL(time.Minute))

		token, err := o.Begin(ctx, stagedAttempt(), base)
		So(err, ShouldBeNil)

		Convey("When resolving inside the custom TTL", func() {
			_, err := o.Resolve(ctx, token, false, base.Add(50*time.Second))
			So(err, ShouldBeNil)
		})

		Convey("When resolving past the custom TTL", func() {
			_, err := o.Resolve(ctx, token, false, base.Add(2*time.Minute))
			So(errors.Is(err, prompt.ErrPendingNotFound), ShouldBeTrue)
		})
	})
}
