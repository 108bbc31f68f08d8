package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ConfirmHandler resolves pending payment prompts.
type ConfirmHandler struct {
	deps Dependencies
}

// NewConfirmHandler creates a new confirm handler.
func NewConfirmHandler(deps Dependencies) *ConfirmHandler {
	return &ConfirmHandler{deps: deps}
}

// confirmRequest mirrors the POST /requests/confirm payload. Collaborate
// carries the submitter's choice; both choices commit the submission.
type confirmRequest struct {
	Token       string `json:"token"`
	Collaborate bool   `json:"collaborate"`
}

// HandleConfirm handles POST /requests/confirm.
func (h *ConfirmHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing token"))
		return
	}

	result, err := h.deps.ResolvePrompt(r.Context(), req.Token, req.Collaborate, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeResult(w, result)
}
