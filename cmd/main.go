package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cabina-live/cabina/internal/adapters/catalog"
	"github.com/cabina-live/cabina/internal/adapters/cooldownstore"
	"github.com/cabina-live/cabina/internal/adapters/http/api"
	"github.com/cabina-live/cabina/internal/adapters/repository"
	app "github.com/cabina-live/cabina/internal/app"
	"github.com/cabina-live/cabina/internal/config"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
)

// HTTP server timeout constants. Write timeout stays zero because the
// board stream endpoint holds its response open indefinitely.
const (
	readTimeout            = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCooldownWindow(time.Duration(cfg.CooldownSeconds) * time.Second),
		app.WithPendingPromptTTL(time.Duration(cfg.PendingPromptTTLSeconds) * time.Second),
		app.WithGeofenceRadius(cfg.GeofenceRadiusKm),
		app.WithCatalogOptions(
			catalog.WithBaseURL(cfg.CatalogBaseURL),
			catalog.WithTimeout(time.Duration(cfg.CatalogTimeoutMS)*time.Millisecond),
		),
	}
	if cfg.QuotaTier1 > 0 {
		opts = append(opts, app.WithQuotaLimit(model.Tier1, cfg.QuotaTier1))
	}
	if cfg.QuotaTier2 > 0 {
		opts = append(opts, app.WithQuotaLimit(model.Tier2, cfg.QuotaTier2))
	}

	if cfg.StoreDriver == "sqlite" {
		store, err := repository.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			os.Stderr.WriteString("failed to open sqlite store: " + err.Error() + "\n")
			return
		}
		opts = append(opts, app.WithBackend(store))
		log.Info(ctx, "using sqlite store", logger.String("path", cfg.SQLitePath))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cooldownTTL := 2 * time.Duration(cfg.CooldownSeconds) * time.Second
		opts = append(opts, app.WithCooldownStore(cooldownstore.New(rdb, cooldownstore.WithTTL(cooldownTTL))))
		log.Info(ctx, "using redis cooldown store", logger.String("addr", cfg.RedisAddr))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
// GetStats itself pushes the values into the metrics registry.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
