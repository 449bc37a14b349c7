// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ProgressHandler handles judge progress requests.
type ProgressHandler struct {
	deps Dependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps Dependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// HandleGetProgress handles GET /events/{id}/judges/{judgeID}/progress
// requests.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progress"
	report, err := h.deps.Progress(r.Context(), r.PathValue("id"), r.PathValue("judgeID"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
