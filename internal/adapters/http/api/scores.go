// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/verdict/internal/domain/submission"
)

// ScoresHandler handles score submission and per-team score reads.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleSubmitScore handles POST /events/{id}/scores requests. This is
// the judge's explicit confirm step; there is no autosave path.
func (h *ScoresHandler) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	var req submission.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.EventID = r.PathValue("id")
	receipt, err := h.deps.SubmitScore(r.Context(), req)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// HandleTeamScores handles GET /events/{id}/teams/{teamID}/scores
// requests: one team's aggregated entry with the per-judge breakdown.
func (h *ScoresHandler) HandleTeamScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_scores"
	entry, err := h.deps.TeamScores(r.Context(), r.PathValue("id"), r.PathValue("teamID"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
