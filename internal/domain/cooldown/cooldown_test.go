package cooldown_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/domain/cooldown"
)

func TestLimiter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	Convey("Given a limiter with the default 60 second window", t, func() {
		l := cooldown.NewLimiter()

		Convey("When a session has never submitted", func() {
			allowed, remaining, err := l.CanSubmit(ctx, "session-a", base)

			Convey("Then it should be allowed immediately", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeTrue)
				So(remaining, ShouldEqual, 0)
			})
		})

		Convey("When a submission was just accepted", func() {
			So(l.RecordSubmission(ctx, "session-a", base), ShouldBeNil)

			Convey("And the session retries one second later", func() {
				allowed, remaining, err := l.CanSubmit(ctx, "session-a", base.Add(1*time.Second))

				Convey("Then it should be denied with 59 seconds remaining", func() {
					So(err, ShouldBeNil)
					So(allowed, ShouldBeFalse)
					So(remaining, ShouldEqual, 59)
				})
			})

			Convey("And the session retries at exactly the window boundary", func() {
				allowed, _, err := l.CanSubmit(ctx, "session-a", base.Add(60*time.Second))

				Convey("Then it should be allowed", func() {
					So(err, ShouldBeNil)
					So(allowed, ShouldBeTrue)
				})
			})

			Convey("And the session retries after 61 seconds", func() {
				allowed, _, err := l.CanSubmit(ctx, "session-a", base.Add(61*time.Second))

				Convey("Then it should be allowed", func() {
					So(err, ShouldBeNil)
					So(allowed, ShouldBeTrue)
				})
			})

			Convey("And a different session submits right away", func() {
				allowed, _, err := l.CanSubmit(ctx, "session-b", base.Add(1*time.Second))

				Convey("Then it should be allowed; cooldown is per session", func() {
					So(err, ShouldBeNil)
					So(allowed, ShouldBeTrue)
				})
			})
		})

		Convey("When the session is denied repeatedly", func() {
			So(l.RecordSubmission(ctx, "session-a", base), ShouldBeNil)

			_, r1, _ := l.CanSubmit(ctx, "session-a", base.Add(10*time.Second))
			_, r2, _ := l.CanSubmit(ctx, "session-a", base.Add(30*time.Second))

			Convey("Then denials should not extend the window", func() {
				So(r1, ShouldEqual, 50)
				So(r2, ShouldEqual, 30)
			})
		})

		Convey("When the remaining time has a fractional second", func() {
			So(l.RecordSubmission(ctx, "session-a", base), ShouldBeNil)
			_, remaining, _ := l.CanSubmit(ctx, "session-a", base.Add(59*time.Second+500*time.Millisecond))

			Convey("Then the remaining seconds should round up", func() {
				So(remaining, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a limiter with a custom window", t, func() {
		l := cooldown.NewLimiter(cooldown.WithWindow(10 * time.Second))

		Convey("Then the window should be reported", func() {
			So(l.Window(), ShouldEqual, 10*time.Second)
		})

		Convey("When a submission is recorded", func() {
			So(l.RecordSubmission(ctx, "session-a", base), ShouldBeNil)

			allowed, remaining, err := l.CanSubmit(ctx, "session-a", base.Add(4*time.Second))
			So(err, ShouldBeNil)

			Convey("Then the custom window should apply", func() {
				So(allowed, ShouldBeFalse)
				So(remaining, ShouldEqual, 6)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory cooldown store", t, func() {
		s := cooldown.NewMemoryStore()

		Convey("When a session has no record", func() {
			_, ok, err := s.Last(ctx, "unknown")

			Convey("Then ok should be false", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a timestamp is written and read back", func() {
			at := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
			So(s.SetLast(ctx, "session-a", at), ShouldBeNil)

			got, ok, err := s.Last(ctx, "session-a")

			Convey("Then the stored time should come back", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Equal(at), ShouldBeTrue)
			})
		})

		Convey("When a newer timestamp overwrites an older one", func() {
			first := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
			second := first.Add(2 * time.Minute)
			So(s.SetLast(ctx, "session-a", first), ShouldBeNil)
			So(s.SetLast(ctx, "session-a", second), ShouldBeNil)

			got, ok, _ := s.Last(ctx, "session-a")

			Convey("Then the newer one should win", func() {
				So(ok, ShouldBeTrue)
				So(got.Equal(second), ShouldBeTrue)
			})
		})
	})
}
