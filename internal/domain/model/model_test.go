package model_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/domain/model"
)

func TestEventOpen(t *testing.T) {
	Convey("Given an event", t, func() {
		ev := model.Event{ID: "ev-1", AcceptsRequests: true, State: model.EventLive}

		Convey("When it is live and accepting requests", func() {
			So(ev.Open(), ShouldBeTrue)
		})

		Convey("When the toggle is off", func() {
			ev.AcceptsRequests = false
			So(ev.Open(), ShouldBeFalse)
		})

		Convey("When it has not started yet", func() {
			ev.State = model.EventScheduled
			So(ev.Open(), ShouldBeFalse)
		})

		Convey("When it has ended", func() {
			ev.State = model.EventEnded
			So(ev.Open(), ShouldBeFalse)
		})
	})
}

func TestAggregatedRequest(t *testing.T) {
	now := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	track := model.Track{
		ID:     "tr-1",
		Title:  "Song One",
		Artist: "Artist One",
	}

	Convey("Given a first submission for a track", t, func() {
		req := model.NewAggregatedRequest("ev-1", track, "play this!", false, now)

		Convey("Then the request should snapshot the track with count one", func() {
			So(req.EventID, ShouldEqual, "ev-1")
			So(req.TrackID, ShouldEqual, "tr-1")
			So(req.Title, ShouldEqual, "Song One")
			So(req.Count, ShouldEqual, 1)
			So(req.FirstRequestedAt.Equal(now), ShouldBeTrue)
			So(req.Messages, ShouldHaveLength, 1)
			So(req.Messages[0].Text, ShouldEqual, "play this!")
			So(req.Paid, ShouldBeFalse)
		})

		Convey("When a repeat submission merges in", func() {
			later := now.Add(90 * time.Second)
			req.Merge("me too", false, later)

			Convey("Then the count should grow and the message append", func() {
				So(req.Count, ShouldEqual, 2)
				So(req.Messages, ShouldHaveLength, 2)
				So(req.Messages[1].Text, ShouldEqual, "me too")
				So(req.Messages[1].At.Equal(later), ShouldBeTrue)
			})

			Convey("Then the first-submission time should not move", func() {
				So(req.FirstRequestedAt.Equal(now), ShouldBeTrue)
			})
		})

		Convey("When a repeat submission carries no message", func() {
			req.Merge("", false, now.Add(time.Minute))

			Convey("Then no empty message should be stored", func() {
				So(req.Count, ShouldEqual, 2)
				So(req.Messages, ShouldHaveLength, 1)
			})
		})

		Convey("When a paid submission merges in", func() {
			req.Merge("", true, now.Add(time.Minute))
			So(req.Paid, ShouldBeTrue)

			Convey("And a later unpaid one follows", func() {
				req.Merge("", false, now.Add(2*time.Minute))

				Convey("Then the paid flag should stay set", func() {
					So(req.Paid, ShouldBeTrue)
				})
			})
		})
	})

	Convey("Given a first submission without a message", t, func() {
		req := model.NewAggregatedRequest("ev-1", track, "", true, now)

		Convey("Then there should be no messages and the paid flag set", func() {
			So(req.Messages, ShouldBeEmpty)
			So(req.Paid, ShouldBeTrue)
		})
	})

	Convey("Given a clone of a request with messages", t, func() {
		req := model.NewAggregatedRequest("ev-1", track, "hello", false, now)
		clone := req.Clone()
		clone.Messages[0].Text = "mutated"

		Convey("Then mutating the clone should not touch the original", func() {
			So(req.Messages[0].Text, ShouldEqual, "hello")
		})
	})
}
