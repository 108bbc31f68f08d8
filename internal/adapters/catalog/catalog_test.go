package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/adapters/catalog"
	"github.com/cabina-live/cabina/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const deezerPayload = `{
	"data": [
		{
			"id": 3135556,
			"title": "Harder, Better, Faster, Stronger",
			"artist": {"name": "Daft Punk"},
			"album": {"cover_small": "https://cdn.example/cover/3135556.jpg"},
			"preview": "https://cdn.example/preview/3135556.mp3"
		},
		{
			"id": 3135557,
			"title": "Around the World",
			"artist": {"name": "Daft Punk"},
			"album": {"cover_small": "https://cdn.example/cover/3135557.jpg"},
			"preview": "https://cdn.example/preview/3135557.mp3"
		}
	]
}`

func TestClientSearch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a catalog answering like Deezer", t, func() {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(deezerPayload))
		}))
		defer srv.Close()

		c := catalog.NewClient(catalog.WithBaseURL(srv.URL))

		Convey("When searching for a keyword", func() {
			tracks, err := c.Search(ctx, "daft punk")

			Convey("Then the keyword should reach the API escaped", func() {
				So(gotQuery, ShouldEqual, "daft punk")
			})

			Convey("Then the payload should map onto tracks", func() {
				So(err, ShouldBeNil)
				So(tracks, ShouldHaveLength, 2)
				So(tracks[0].ID, ShouldEqual, "3135556")
				So(tracks[0].Title, ShouldEqual, "Harder, Better, Faster, Stronger")
				So(tracks[0].Artist, ShouldEqual, "Daft Punk")
				So(tracks[0].CoverURL, ShouldEqual, "https://cdn.example/cover/3135556.jpg")
				So(tracks[0].PreviewURL, ShouldEqual, "https://cdn.example/preview/3135556.mp3")
			})
		})
	})

	Convey("Given a catalog returning no matches", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer srv.Close()

		c := catalog.NewClient(catalog.WithBaseURL(srv.URL))
		tracks, err := c.Search(ctx, "zzzzz")

		Convey("Then an empty slice should come back without error", func() {
			So(err, ShouldBeNil)
			So(tracks, ShouldBeEmpty)
		})
	})

	Convey("Given a catalog responding with a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := catalog.NewClient(catalog.WithBaseURL(srv.URL))
		_, err := c.Search(ctx, "anything")

		Convey("Then the error should wrap ErrUnavailable", func() {
			So(errors.Is(err, catalog.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a catalog responding with malformed JSON", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": [`))
		}))
		defer srv.Close()

		c := catalog.NewClient(catalog.WithBaseURL(srv.URL))
		_, err := c.Search(ctx, "anything")

		Convey("Then the error should wrap ErrUnavailable", func() {
			So(errors.Is(err, catalog.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a catalog that is unreachable", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		c := catalog.NewClient(catalog.WithBaseURL(srv.URL))
		_, err := c.Search(ctx, "anything")

		Convey("Then the error should wrap ErrUnavailable", func() {
			So(errors.Is(err, catalog.ErrUnavailable), ShouldBeTrue)
		})
	})
}
