package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cabina-live/cabina/pkg/logger"
)

// Run executes the complete load test: health check, submission storm,
// board retrieval and verification.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting board load test",
		logger.String("baseURL", config.BaseURL),
		logger.String("event", config.EventID),
		logger.Int("submissions", config.Submissions),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	client := &http.Client{Timeout: config.Timeout}

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	submissions := generateSubmissions(ctx, config)

	if err := submitAll(ctx, client, config, submissions, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	board, err := fetchBoard(ctx, client, config)
	if err != nil {
		return fmt.Errorf("board retrieval failed: %w", err)
	}
	stats.BoardSize = len(board)

	if err := verifyBoard(board, stats); err != nil {
		return fmt.Errorf("board verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayStats(ctx, stats)

	logger.Get().Info(ctx, "load test completed")
	return nil
}

func checkServiceHealth(ctx context.Context, client *http.Client, config *Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitAll posts every submission through a worker pool and tallies the
// outcome of each response status.
func submitAll(ctx context.Context, client *http.Client, config *Config, submissions []submission, stats *Stats) error {
	url := config.BaseURL + "/events/" + config.EventID + "/requests"

	work := make(chan submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&stats.Submitted, 1)
				switch postSubmission(ctx, client, url, sub) {
				case http.StatusCreated:
					atomic.AddInt64(&stats.Created, 1)
				case http.StatusOK:
					atomic.AddInt64(&stats.Merged, 1)
				case http.StatusAccepted:
					// Payment prompt raised; loadgen never answers it.
					atomic.AddInt64(&stats.Prompted, 1)
				case http.StatusTooManyRequests:
					atomic.AddInt64(&stats.RateLimited, 1)
				case http.StatusConflict, http.StatusForbidden:
					atomic.AddInt64(&stats.Rejected, 1)
				default:
					atomic.AddInt64(&stats.Failed, 1)
				}

				if config.Verbose {
					logger.Get().Debug(ctx, "submitted",
						logger.String("track", sub.Track.ID),
						logger.String("session", sub.SessionID),
					)
				}
			}
		}()
	}

	for _, sub := range submissions {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return ctx.Err()
		case work <- sub:
		}
	}
	close(work)
	wg.Wait()
	return nil
}

// postSubmission returns the HTTP status of one submission, or zero on a
// transport failure.
func postSubmission(ctx context.Context, client *http.Client, url string, sub submission) int {
	payload, err := json.Marshal(sub)
	if err != nil {
		return 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func fetchBoard(ctx context.Context, client *http.Client, config *Config) ([]boardEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+"/events/"+config.EventID+"/board", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected board status %d", resp.StatusCode)
	}

	var board []boardEntry
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return board, nil
}

// verifyBoard checks the two properties every accepted run must satisfy:
// entries ordered by first-submission time, and per-entry counts that add
// up to the number of accepted submissions.
func verifyBoard(board []boardEntry, stats *Stats) error {
	for i := 1; i < len(board); i++ {
		if board[i].FirstRequestedAt.Before(board[i-1].FirstRequestedAt) {
			return fmt.Errorf("board out of order at position %d: %s before %s",
				i, board[i].FirstRequestedAt, board[i-1].FirstRequestedAt)
		}
	}

	var total int64
	for _, entry := range board {
		if entry.Count < 1 {
			return fmt.Errorf("entry %s has count %d", entry.TrackID, entry.Count)
		}
		total += int64(entry.Count)
	}

	accepted := atomic.LoadInt64(&stats.Created) + atomic.LoadInt64(&stats.Merged)
	if total < accepted {
		return fmt.Errorf("board counts add up to %d but %d submissions were accepted", total, accepted)
	}
	return nil
}

func displayStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "load test results",
		logger.Int64("submitted", stats.Submitted),
		logger.Int64("created", stats.Created),
		logger.Int64("merged", stats.Merged),
		logger.Int64("prompted", stats.Prompted),
		logger.Int64("rateLimited", stats.RateLimited),
		logger.Int64("rejected", stats.Rejected),
		logger.Int64("failed", stats.Failed),
		logger.Int("boardSize", stats.BoardSize),
		logger.Duration("duration", stats.Duration),
	)
}
