// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/verdict/internal/domain/model"
)

// TeamsHandler handles team roster and status requests.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleListTeams handles GET /events/{id}/teams requests.
func (h *TeamsHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_teams"
	teams, err := h.deps.Teams(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// statusRequest mirrors the body of PATCH /events/{id}/teams/{teamID}/status.
type statusRequest struct {
	Status model.TeamStatus `json:"status"`
}

// HandleSetStatus handles PATCH /events/{id}/teams/{teamID}/status
// requests. Status is a direct set: the moderator may move a team to
// any status, including backward, until the event ends.
func (h *TeamsHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_team_status"
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := h.deps.SetTeamStatus(r.Context(), r.PathValue("id"), r.PathValue("teamID"), req.Status)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, team)
}
