package api

import (
	"net/http"
	"strings"

	"github.com/cabina-live/cabina/internal/domain/model"
)

// SearchHandler proxies keyword searches to the track catalog.
type SearchHandler struct {
	deps Dependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps Dependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

type searchResponse struct {
	Data []model.Track `json:"data"`
}

// HandleSearch handles GET /search?query=... requests. A catalog outage is
// recovered locally: the client sees an empty result set, never a fault.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	keyword := strings.TrimSpace(r.URL.Query().Get("query"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	tracks, err := h.deps.SearchTracks(r.Context(), keyword)
	if err != nil {
		writeJSON(w, http.StatusOK, searchResponse{Data: []model.Track{}})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Data: tracks})
}
