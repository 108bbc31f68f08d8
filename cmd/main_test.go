package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/adapters/http/api"
	app "github.com/cabina-live/cabina/internal/app"
	"github.com/cabina-live/cabina/internal/config"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("CABINA_ADDR", ":8080")
			t.Setenv("CABINA_COOLDOWN_SECONDS", "45")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CooldownSeconds, convey.ShouldEqual, 45)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithCooldownWindow(30*time.Second),
					app.WithPendingPromptTTL(time.Minute),
					app.WithGeofenceRadius(2),
					app.WithQuotaLimit(model.Tier1, 10),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When wiring the HTTP server", func() {
			svc := app.New()
			ctx := context.Background()
			err := svc.Start(ctx)
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			api.NewServer(svc, svc).Register(ctx, mux)

			convey.Convey("Then the health endpoint should answer", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("And the stats endpoint should answer", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
