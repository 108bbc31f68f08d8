// Command loadgen floods a running board service with synthetic song
// requests and verifies the resulting board.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cabina-live/cabina/internal/loadgen"
	"github.com/cabina-live/cabina/pkg/logger"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		eventID     = flag.String("event", "load-test", "Event to submit requests to")
		submissions = flag.Int("submissions", 10000, "Number of submissions to send")
		tracks      = flag.Int("tracks", 200, "Size of the synthetic track pool")
		workers     = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &loadgen.Config{
		BaseURL:     *baseURL,
		EventID:     *eventID,
		Submissions: *submissions,
		Tracks:      *tracks,
		Workers:     *workers,
		Timeout:     *timeout,
		Verbose:     *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
