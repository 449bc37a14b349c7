// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/verdict/internal/app"
)

// EventsHandler handles event lifecycle requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleCreateEvent handles POST /events requests.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var params app.CreateEventParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ev, err := h.deps.CreateEvent(r.Context(), params)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// HandleGetEvent handles GET /events/{id} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	ev, err := h.deps.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleListCriteria handles GET /events/{id}/criteria requests: the
// rubric the judges score against.
func (h *EventsHandler) HandleListCriteria(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_criteria"
	criteria, err := h.deps.Criteria(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

// phaseRequest mirrors the body of POST /events/{id}/phase.
type phaseRequest struct {
	Action string `json:"action"`
}

// HandlePhase handles POST /events/{id}/phase requests. Action "start"
// opens judging; "end" performs the terminal transition.
func (h *EventsHandler) HandlePhase(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_phase"
	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	eventID := r.PathValue("id")
	switch req.Action {
	case "start":
		ev, err := h.deps.StartJudging(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, ev)
	case "end":
		ev, err := h.deps.EndJudging(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, ev)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}
