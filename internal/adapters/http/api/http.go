// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/verdict/internal/adapters/live"
	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/domain/leaderboard"
	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/submission"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateEvent(ctx context.Context, params app.CreateEventParams) (model.Event, error)
	Event(ctx context.Context, eventID string) (model.Event, error)
	Teams(ctx context.Context, eventID string) ([]model.Team, error)
	Criteria(ctx context.Context, eventID string) ([]model.Criterion, error)

	SubmitScore(ctx context.Context, req submission.Request) (submission.Receipt, error)
	SetTeamStatus(ctx context.Context, eventID, teamID string, status model.TeamStatus) (model.Team, error)
	StartJudging(ctx context.Context, eventID string) (model.Event, error)
	EndJudging(ctx context.Context, eventID string) (model.Event, error)

	Leaderboard(ctx context.Context, eventID string) (app.LeaderboardView, error)
	TeamScores(ctx context.Context, eventID, teamID string) (leaderboard.Entry, error)
	Progress(ctx context.Context, eventID, judgeID string) (app.ProgressReport, error)
	Compare(ctx context.Context, eventID, team1ID, team2ID, criterionID string) (app.CompareReport, error)

	Watch(ctx context.Context, eventID string) (<-chan live.Notice, func(), error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	eventsHandler      *EventsHandler
	teamsHandler       *TeamsHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	progressHandler    *ProgressHandler
	compareHandler     *CompareHandler
	watchHandler       *WatchHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		eventsHandler:      NewEventsHandler(deps),
		teamsHandler:       NewTeamsHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		progressHandler:    NewProgressHandler(deps),
		compareHandler:     NewCompareHandler(deps),
		watchHandler:       NewWatchHandler(deps),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandleCreateEvent, "events"))
	mux.HandleFunc("GET /events/{id}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("GET /events/{id}/criteria", MetricsMiddleware(s.eventsHandler.HandleListCriteria, "criteria"))
	mux.HandleFunc("POST /events/{id}/phase", MetricsMiddleware(s.eventsHandler.HandlePhase, "phase"))

	mux.HandleFunc("GET /events/{id}/teams", MetricsMiddleware(s.teamsHandler.HandleListTeams, "teams"))
	mux.HandleFunc("PATCH /events/{id}/teams/{teamID}/status", MetricsMiddleware(s.teamsHandler.HandleSetStatus, "team_status"))

	mux.HandleFunc("POST /events/{id}/scores", MetricsMiddleware(s.scoresHandler.HandleSubmitScore, "scores"))
	mux.HandleFunc("GET /events/{id}/teams/{teamID}/scores", MetricsMiddleware(s.scoresHandler.HandleTeamScores, "team_scores"))

	mux.HandleFunc("GET /events/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /events/{id}/judges/{judgeID}/progress", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("GET /events/{id}/compare", MetricsMiddleware(s.compareHandler.HandleCompare, "compare"))
	mux.HandleFunc("GET /events/{id}/watch", s.watchHandler.HandleWatch)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps the engine's error taxonomy to HTTP statuses.
// Validation errors surface verbatim so the UI can highlight the
// offending field.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, submission.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, repository.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate_submission", err)
	case errors.Is(err, app.ErrPrecondition):
		writeError(w, http.StatusConflict, "precondition_failed", err)
	case errors.Is(err, repository.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
