// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// CompareHandler handles head-to-head comparison requests.
type CompareHandler struct {
	deps Dependencies
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps Dependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompare handles GET /events/{id}/compare?team1=&team2= requests.
// An optional criterion query parameter adds the per-criterion deep
// dive.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	q := r.URL.Query()
	team1, team2 := q.Get("team1"), q.Get("team2")
	if team1 == "" || team2 == "" || team1 == team2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.Compare(r.Context(), r.PathValue("id"), team1, team2, q.Get("criterion"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
