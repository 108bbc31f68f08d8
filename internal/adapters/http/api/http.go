// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/internal/domain/prompt"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Submit(ctx context.Context, attempt model.SubmissionAttempt, now time.Time) (prompt.Decision, error)
	ResolvePrompt(ctx context.Context, token string, collaborate bool, now time.Time) (board.Result, error)
	Board(ctx context.Context, eventID string) ([]model.AggregatedRequest, error)
	SubscribeBoard(ctx context.Context, eventID string) (string, <-chan []model.AggregatedRequest, error)
	UnsubscribeBoard(eventID, id string)
	SearchTracks(ctx context.Context, keyword string) ([]model.Track, error)
	VerifyLocation(ctx context.Context, eventID string, lat, lon float64) (bool, error)
}

// StatsProvider exposes service statistics for the /stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	submitHandler  *SubmitHandler
	confirmHandler *ConfirmHandler
	boardHandler   *BoardHandler
	streamHandler  *StreamHandler
	verifyHandler  *VerifyHandler
	searchHandler  *SearchHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		submitHandler:  NewSubmitHandler(deps),
		confirmHandler: NewConfirmHandler(deps),
		boardHandler:   NewBoardHandler(deps),
		streamHandler:  NewStreamHandler(deps),
		verifyHandler:  NewVerifyHandler(deps),
		searchHandler:  NewSearchHandler(deps),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/search", MetricsMiddleware(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("/requests/confirm", MetricsMiddleware(s.confirmHandler.HandleConfirm, "confirm"))
	mux.HandleFunc("/events/", s.handleEvents)
}

// handleEvents dispatches /events/{id}/... routes to their handlers.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	eventID := parts[0]
	switch {
	case len(parts) == 2 && parts[1] == "requests":
		MetricsMiddleware(s.submitHandler.handler(eventID), "submit")(w, r)
	case len(parts) == 2 && parts[1] == "board":
		MetricsMiddleware(s.boardHandler.handler(eventID), "board")(w, r)
	case len(parts) == 3 && parts[1] == "board" && parts[2] == "stream":
		// No metrics middleware here: SSE responses are long-lived and the
		// wrapper would only ever observe the final disconnect.
		s.streamHandler.handler(eventID)(w, r)
	case len(parts) == 2 && parts[1] == "location":
		MetricsMiddleware(s.verifyHandler.handler(eventID), "verify_location")(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", nil)
	}
}

type errorResponse struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	SecondsRemaining int    `json:"seconds_remaining,omitempty"`
	MaxRequests      int    `json:"max_requests,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
