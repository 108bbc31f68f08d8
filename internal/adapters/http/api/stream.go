package api

import (
	"encoding/json"
	"net/http"
)

// StreamHandler serves the live board subscription as server-sent events.
type StreamHandler struct {
	deps Dependencies
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps Dependencies) *StreamHandler {
	return &StreamHandler{deps: deps}
}

// handler handles GET /events/{id}/board/stream. The first event carries
// the current snapshot; every board change pushes a fresh one. Slow
// readers skip intermediate snapshots but never see a stale one.
func (h *StreamHandler) handler(eventID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
			return
		}

		id, snapshots, err := h.deps.SubscribeBoard(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		defer h.deps.UnsubscribeBoard(eventID, id)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case snapshot, open := <-snapshots:
				if !open {
					return
				}
				payload, err := json.Marshal(snapshot)
				if err != nil {
					return
				}
				if _, err := w.Write([]byte("data: ")); err != nil {
					return
				}
				if _, err := w.Write(payload); err != nil {
					return
				}
				if _, err := w.Write([]byte("\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
