package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cabina-live/cabina/internal/domain/board"
	"github.com/cabina-live/cabina/internal/domain/model"
)

// SubmitHandler handles song request submissions.
type SubmitHandler struct {
	deps Dependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// submitRequest mirrors the POST /events/{id}/requests payload.
type submitRequest struct {
	SessionID        string     `json:"session_id"`
	Track            trackInput `json:"track"`
	Message          string     `json:"message"`
	LocationVerified bool       `json:"location_verified"`
}

type trackInput struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	CoverURL   string `json:"cover_url"`
	PreviewURL string `json:"preview_url"`
}

func (r submitRequest) validate() error {
	switch {
	case strings.TrimSpace(r.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(r.Track.ID) == "":
		return errors.New("missing track.id")
	case strings.TrimSpace(r.Track.Title) == "":
		return errors.New("missing track.title")
	}
	return nil
}

// submitResponse is returned on both success paths and when a payment
// prompt interposes.
type submitResponse struct {
	Status  string                   `json:"status"`
	Request *model.AggregatedRequest `json:"request,omitempty"`
	Token   string                   `json:"token,omitempty"`
	QRURL   string                   `json:"qr_url,omitempty"`
}

// handler handles POST /events/{id}/requests.
func (h *SubmitHandler) handler(eventID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}

		attempt := model.SubmissionAttempt{
			SessionID: req.SessionID,
			EventID:   eventID,
			Track: model.Track{
				ID:         req.Track.ID,
				Title:      req.Track.Title,
				Artist:     req.Track.Artist,
				CoverURL:   req.Track.CoverURL,
				PreviewURL: req.Track.PreviewURL,
			},
			Message:          req.Message,
			LocationVerified: req.LocationVerified,
		}

		decision, err := h.deps.Submit(r.Context(), attempt, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if decision.Prompted {
			writeJSON(w, http.StatusAccepted, submitResponse{
				Status: "payment_prompt",
				Token:  decision.Token,
				QRURL:  decision.QRURL,
			})
			return
		}

		writeResult(w, decision.Result)
	}
}

// writeResult maps the two success outcomes so clients can show distinct
// confirmation messaging.
func writeResult(w http.ResponseWriter, result board.Result) {
	status := http.StatusOK
	if result.Outcome == board.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, submitResponse{
		Status:  string(result.Outcome),
		Request: &result.Request,
	})
}
