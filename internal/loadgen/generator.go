package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/cabina-live/cabina/pkg/logger"
)

var sampleMessages = []string{
	"",
	"",
	"play this one next!",
	"for the birthday table",
	"turn it up",
	"this is our song",
}

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSubmissions builds the synthetic traffic. Track choice is skewed
// toward the low track ids so a realistic share of submissions merges into
// existing board entries instead of creating new ones.
func generateSubmissions(ctx context.Context, config *Config) []submission {
	logger.Get().Info(ctx, "generating submissions",
		logger.Int("submissions", config.Submissions),
		logger.Int("tracks", config.Tracks),
	)

	tracks := make([]track, config.Tracks)
	for i := range tracks {
		tracks[i] = track{
			ID:     fmt.Sprintf("lg-%04d", i),
			Title:  fmt.Sprintf("Synthetic Track %d", i),
			Artist: fmt.Sprintf("Synthetic Artist %d", i%10),
		}
	}

	out := make([]submission, config.Submissions)
	for i := range out {
		// Squaring the draw skews picks toward index zero.
		draw := randomInt(config.Tracks * config.Tracks)
		idx := draw / config.Tracks
		if r := randomInt(config.Tracks); r < idx {
			idx = r
		}

		out[i] = submission{
			// One session per submission keeps the cooldown out of the way.
			SessionID:        uuid.NewString(),
			Track:            tracks[idx],
			Message:          sampleMessages[randomInt(len(sampleMessages))],
			LocationVerified: true,
		}
	}
	return out
}
