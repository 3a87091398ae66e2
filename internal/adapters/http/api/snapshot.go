package api

import (
	"net/http"
)

// SnapshotHandler serves the visitor's current progression state.
type SnapshotHandler struct {
	deps Dependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps Dependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleGetSnapshot handles GET /v1/snapshot requests.
func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_snapshot"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
