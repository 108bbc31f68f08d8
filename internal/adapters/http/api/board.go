package api

import "net/http"

// BoardHandler serves point-in-time board snapshots.
type BoardHandler struct {
	deps Dependencies
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps Dependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

// handler handles GET /events/{id}/board.
func (h *BoardHandler) handler(eventID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		requests, err := h.deps.Board(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	}
}
