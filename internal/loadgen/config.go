// Package loadgen drives synthetic request traffic against a running
// board service and verifies the resulting board.
package loadgen

import "time"

// Config holds configuration for one load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	EventID     string        // Event to submit requests to
	Submissions int           // Number of submissions to send
	Tracks      int           // Size of the synthetic track pool
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Verbose     bool          // Enable verbose logging
}

// submission is one synthetic song request ready to post.
type submission struct {
	SessionID        string `json:"session_id"`
	Track            track  `json:"track"`
	Message          string `json:"message,omitempty"`
	LocationVerified bool   `json:"location_verified"`
}

type track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	CoverURL   string `json:"cover_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// boardEntry mirrors the aggregated request payload the board returns.
type boardEntry struct {
	TrackID          string    `json:"track_id"`
	Title            string    `json:"title"`
	Count            int       `json:"count"`
	FirstRequestedAt time.Time `json:"first_requested_at"`
}

// Stats holds the outcome counters of a run.
type Stats struct {
	Submitted   int64
	Created     int64
	Merged      int64
	Prompted    int64
	RateLimited int64
	Rejected    int64
	Failed      int64
	BoardSize   int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
