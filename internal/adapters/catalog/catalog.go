// Package catalog searches an external track catalog by keyword.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/logger"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// DefaultBaseURL points at the public Deezer search API the original
// deployment queried.
const DefaultBaseURL = "https://api.deezer.com"

const defaultTimeout = 5 * time.Second

// ErrUnavailable is returned when the catalog cannot be reached or
// responds with garbage. Callers recover by showing an empty result set.
var ErrUnavailable = errors.New("track catalog unavailable")

// Client queries a Deezer-compatible /search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the catalog base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a catalog client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("catalog")
	}

	return c
}

// searchResponse mirrors the Deezer search payload.
type searchResponse struct {
	Data []struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			CoverSmall string `json:"cover_small"`
		} `json:"album"`
		Preview string `json:"preview"`
	} `json:"data"`
}

// Search returns tracks matching the keyword. On failure it returns an
// empty slice together with an error wrapping ErrUnavailable; it never
// panics or returns partial garbage.
func (c *Client) Search(ctx context.Context, keyword string) ([]model.Track, error) {
	start := time.Now()
	metrics.RecordCatalogRequest()
	defer func() {
		metrics.RecordCatalogLatency(float64(time.Since(start).Milliseconds()))
	}()

	u := c.baseURL + "/search?q=" + url.QueryEscape(keyword)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		metrics.RecordCatalogError()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordCatalogError()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordCatalogError()
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordCatalogError()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	tracks := make([]model.Track, 0, len(payload.Data))
	for _, d := range payload.Data {
		tracks = append(tracks, model.Track{
			ID:         strconv.FormatInt(d.ID, 10),
			Title:      d.Title,
			Artist:     d.Artist.Name,
			CoverURL:   d.Album.CoverSmall,
			PreviewURL: d.Preview,
		})
	}
	return tracks, nil
}
