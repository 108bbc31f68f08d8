package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// VerifyHandler checks submitter coordinates against an event geofence.
// Clients call it once per explicit user action and cache a positive
// result for the rest of the session.
type VerifyHandler struct {
	deps Dependencies
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(deps Dependencies) *VerifyHandler {
	return &VerifyHandler{deps: deps}
}

type verifyRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type verifyResponse struct {
	Verified   bool      `json:"verified"`
	VerifiedAt time.Time `json:"verified_at"`
}

// handler handles POST /events/{id}/location.
func (h *VerifyHandler) handler(eventID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}

		verified, err := h.deps.VerifyLocation(r.Context(), eventID, req.Lat, req.Lon)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyResponse{Verified: verified, VerifiedAt: time.Now().UTC()})
	}
}
