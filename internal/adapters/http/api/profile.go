package api

import (
	"encoding/json"
	"net/http"
)

// ProfileHandler covers the visitor-facing mutations: choosing a
// display name and wiping progress.
type ProfileHandler struct {
	deps Dependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps Dependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandlePostName handles POST /v1/name requests.
func (h *ProfileHandler) HandlePostName(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_name"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetDisplayName(r.Context(), req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// HandlePostReset handles POST /v1/reset requests.
func (h *ProfileHandler) HandlePostReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}
