// Package app provides the core business service that implements the
// dependencies required by the HTTP API: the judging workflow state
// machines and the read-side aggregation entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/verdict/internal/adapters/live"
	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/domain/consensus"
	"github.com/okian/verdict/internal/domain/leaderboard"
	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/rubric"
	"github.com/okian/verdict/internal/domain/submission"
	"github.com/okian/verdict/pkg/logger"
	"github.com/okian/verdict/pkg/metrics"
)

// Service implements the API dependencies for the judging system. It is
// synchronous: every call runs to completion in the caller's goroutine,
// and all cross-request coordination lives in the store.
type Service struct {
	store      repository.Store
	subs       *submission.Service
	thresholds consensus.Thresholds
	hub        *live.Hub
	logger     logger.Logger
	now        func() time.Time

	// Running tallies for the stats endpoint.
	submissionsAccepted atomic.Int64
	duplicatesRejected  atomic.Int64
	validationFailures  atomic.Int64
	startedAt           time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithConsensusThresholds sets the consistency bucket cut points.
func WithConsensusThresholds(t consensus.Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// WithHub sets the live refresh hub.
func WithHub(hub *live.Hub) Option {
	return func(s *Service) { s.hub = hub }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Tests use this to pin
// submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration: in-memory store,
// default thresholds, no hub.
func New(opts ...Option) *Service {
	s := &Service{
		store:      repository.NewMemoryStore(),
		subs:       submission.NewService(),
		thresholds: consensus.DefaultThresholds(),
		now:        time.Now,
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// CreateEventParams seeds a new event. Criteria defaults to the standard
// rubric when empty.
type CreateEventParams struct {
	Name     string            `json:"name"`
	Teams    []TeamSeed        `json:"teams"`
	Judges   []model.Judge     `json:"judges"`
	Criteria []model.Criterion `json:"criteria,omitempty"`
}

// TeamSeed describes one team at event creation.
type TeamSeed struct {
	Name        string   `json:"name"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	ProjectURL  string   `json:"project_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members,omitempty"`
}

// CreateEvent records a new event in the not-started phase with all
// teams waiting.
func (s *Service) CreateEvent(ctx context.Context, params CreateEventParams) (model.Event, error) {
	criteria := params.Criteria
	if len(criteria) == 0 {
		criteria = rubric.DefaultCriteria()
	}
	if _, err := rubric.New(criteria); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", submission.ErrValidation, err)
	}

	ev := model.Event{
		ID:    uuid.NewString(),
		Name:  params.Name,
		Phase: model.PhaseNotStarted,
	}
	teams := make([]model.Team, len(params.Teams))
	for i, seed := range params.Teams {
		teams[i] = model.Team{
			ID:          uuid.NewString(),
			EventID:     ev.ID,
			Name:        seed.Name,
			Status:      model.TeamWaiting,
			PhotoURL:    seed.PhotoURL,
			ProjectURL:  seed.ProjectURL,
			Description: seed.Description,
			Members:     seed.Members,
			CreatedSeq:  i,
		}
	}
	judges := make([]model.Judge, len(params.Judges))
	for i, j := range params.Judges {
		if j.ID == "" {
			j.ID = uuid.NewString()
		}
		judges[i] = j
	}
	if err := s.store.CreateEvent(ctx, ev, teams, judges, criteria); err != nil {
		return model.Event{}, err
	}
	s.logger.Info(ctx, "event created",
		logger.String("eventID", ev.ID),
		logger.Int("teams", len(teams)),
		logger.Int("judges", len(judges)),
	)
	return ev, nil
}

// Event returns the event by id.
func (s *Service) Event(ctx context.Context, eventID string) (model.Event, error) {
	return s.store.Event(ctx, eventID)
}

// Teams returns the event's teams in creation order.
func (s *Service) Teams(ctx context.Context, eventID string) ([]model.Team, error) {
	return s.store.Teams(ctx, eventID)
}

// Criteria returns the event's rubric criteria.
func (s *Service) Criteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	return s.store.Criteria(ctx, eventID)
}

// SubmitScore validates and records one judge's evaluation of one team,
// returning a receipt with the computed total for immediate display.
func (s *Service) SubmitScore(ctx context.Context, req submission.Request) (submission.Receipt, error) {
	ev, err := s.store.Event(ctx, req.EventID)
	if err != nil {
		return submission.Receipt{}, err
	}
	if ev.Phase != model.PhaseInProgress {
		return submission.Receipt{}, ErrJudgingNotOpen
	}
	if _, err := s.store.Team(ctx, req.EventID, req.TeamID); err != nil {
		return submission.Receipt{}, err
	}
	if req.JudgeID != "" {
		if err := s.requireJudge(ctx, req.EventID, req.JudgeID); err != nil {
			return submission.Receipt{}, err
		}
	}

	criteria, err := s.store.Criteria(ctx, req.EventID)
	if err != nil {
		return submission.Receipt{}, err
	}
	r, err := rubric.New(criteria)
	if err != nil {
		return submission.Receipt{}, err
	}
	if err := s.subs.Validate(r, req); err != nil {
		s.validationFailures.Add(1)
		metrics.RecordSubmissionRejected()
		return submission.Receipt{}, err
	}

	sub := s.subs.Build(req, s.now())
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			s.duplicatesRejected.Add(1)
			metrics.RecordSubmissionDuplicate()
		}
		return submission.Receipt{}, err
	}

	s.submissionsAccepted.Add(1)
	metrics.RecordSubmissionAccepted()
	s.notify(req.EventID, live.ReasonScoreSubmitted)
	s.logger.Info(ctx, "score submitted",
		logger.String("eventID", req.EventID),
		logger.String("teamID", req.TeamID),
		logger.String("judgeID", req.JudgeID),
		logger.Int("total", sub.Total()),
	)
	return submission.ReceiptFor(sub), nil
}

func (s *Service) requireJudge(ctx context.Context, eventID, judgeID string) error {
	judges, err := s.store.Judges(ctx, eventID)
	if err != nil {
		return err
	}
	for _, j := range judges {
		if j.ID == judgeID {
			return nil
		}
	}
	return fmt.Errorf("judge %q: %w", judgeID, repository.ErrNotFound)
}

// SetTeamStatus moves one team to the given queue status. Statuses have
// no enforced ordering between themselves; the only gate is the global
// freeze after the event ends.
func (s *Service) SetTeamStatus(ctx context.Context, eventID, teamID string, status model.TeamStatus) (model.Team, error) {
	if !status.Valid() {
		return model.Team{}, fmt.Errorf("%w: unknown status %q", submission.ErrValidation, status)
	}
	team, err := s.store.SetTeamStatus(ctx, eventID, teamID, status)
	if err != nil {
		if errors.Is(err, repository.ErrEventEnded) {
			return model.Team{}, ErrEventFrozen
		}
		return model.Team{}, err
	}
	metrics.RecordStatusChange(status.String())
	s.notify(eventID, live.ReasonTeamStatus)
	return team, nil
}

// StartJudging opens the event for scoring: not-started -> in-progress.
func (s *Service) StartJudging(ctx context.Context, eventID string) (model.Event, error) {
	ev, err := s.store.AdvancePhase(ctx, eventID, model.PhaseNotStarted, model.PhaseInProgress)
	if err != nil {
		if errors.Is(err, repository.ErrPhaseConflict) {
			return model.Event{}, fmt.Errorf("%w: %w", ErrBadTransition, err)
		}
		return model.Event{}, err
	}
	metrics.RecordPhaseTransition(model.PhaseInProgress.String())
	s.notify(eventID, live.ReasonPhase)
	s.logger.Info(ctx, "judging started", logger.String("eventID", eventID))
	return ev, nil
}

// EndJudging performs the terminal phase transition. It fails unless
// every team is completed, and fails (distinguishably, not as a silent
// success) when the event already ended. The store's conditional update
// makes the transition race-free.
func (s *Service) EndJudging(ctx context.Context, eventID string) (model.Event, error) {
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if ev.Phase == model.PhaseEnded {
		return model.Event{}, ErrAlreadyEnded
	}
	teams, err := s.store.Teams(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if !model.AllTeamsCompleted(teams) {
		return model.Event{}, ErrTeamsNotDone
	}
	ev, err = s.store.AdvancePhase(ctx, eventID, model.PhaseInProgress, model.PhaseEnded)
	if err != nil {
		if errors.Is(err, repository.ErrPhaseConflict) {
			// Either never started or a concurrent call ended it first.
			return model.Event{}, fmt.Errorf("%w: %w", ErrBadTransition, err)
		}
		return model.Event{}, err
	}
	metrics.RecordPhaseTransition(model.PhaseEnded.String())
	s.notify(eventID, live.ReasonPhase)
	s.logger.Info(ctx, "judging ended", logger.String("eventID", eventID))
	return ev, nil
}

// LeaderboardView is the aggregate read model: every team's derived
// entry plus the caveat for the unnormalized total.
type LeaderboardView struct {
	EventID          string              `json:"event_id"`
	Phase            model.Phase         `json:"judging_phase"`
	Final            bool                `json:"final"`
	Entries          []leaderboard.Entry `json:"entries"`
	TotalScoreCaveat string              `json:"total_score_caveat"`
}

// Leaderboard recomputes the full leaderboard from stored submissions.
func (s *Service) Leaderboard(ctx context.Context, eventID string) (LeaderboardView, error) {
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return LeaderboardView{}, err
	}
	entries, err := s.aggregate(ctx, eventID)
	if err != nil {
		return LeaderboardView{}, err
	}
	return LeaderboardView{
		EventID:          eventID,
		Phase:            ev.Phase,
		Final:            ev.Phase == model.PhaseEnded,
		Entries:          entries,
		TotalScoreCaveat: leaderboard.TotalScoreCaveat,
	}, nil
}

func (s *Service) aggregate(ctx context.Context, eventID string) ([]leaderboard.Entry, error) {
	start := time.Now()
	teams, err := s.store.Teams(ctx, eventID)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.Submissions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	judges, err := s.store.Judges(ctx, eventID)
	if err != nil {
		return nil, err
	}
	entries := leaderboard.Aggregate(teams, subs, judges)
	metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))
	return entries, nil
}

// TeamScores returns one team's aggregated entry, rank included.
func (s *Service) TeamScores(ctx context.Context, eventID, teamID string) (leaderboard.Entry, error) {
	if _, err := s.store.Team(ctx, eventID, teamID); err != nil {
		return leaderboard.Entry{}, err
	}
	entries, err := s.aggregate(ctx, eventID)
	if err != nil {
		return leaderboard.Entry{}, err
	}
	for _, e := range entries {
		if e.TeamID == teamID {
			return e, nil
		}
	}
	// Unreachable: aggregation emits a row for every team.
	return leaderboard.Entry{}, fmt.Errorf("team %q: %w", teamID, repository.ErrNotFound)
}

// TeamProgress is one row of a judge's progress view.
type TeamProgress struct {
	TeamID     string           `json:"team_id"`
	TeamName   string           `json:"team_name"`
	Status     model.TeamStatus `json:"status"`
	Scored     bool             `json:"scored"`
	JudgeTotal int              `json:"judge_total"`
}

// ProgressReport summarizes how far one judge is through the roster.
// Final flips when the event ends, switching consumers from live
// progress to final results semantics.
type ProgressReport struct {
	EventID     string         `json:"event_id"`
	JudgeID     string         `json:"judge_id"`
	JudgeName   string         `json:"judge_name"`
	TeamsScored int            `json:"teams_scored"`
	TeamsTotal  int            `json:"teams_total"`
	Final       bool           `json:"final"`
	Teams       []TeamProgress `json:"teams"`
}

// Progress reports a judge's scoring progress across all teams.
func (s *Service) Progress(ctx context.Context, eventID, judgeID string) (ProgressReport, error) {
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return ProgressReport{}, err
	}
	judges, err := s.store.Judges(ctx, eventID)
	if err != nil {
		return ProgressReport{}, err
	}
	report := ProgressReport{
		EventID: eventID,
		JudgeID: judgeID,
		Final:   ev.Phase == model.PhaseEnded,
	}
	found := false
	for _, j := range judges {
		if j.ID == judgeID {
			report.JudgeName = j.Name
			found = true
			break
		}
	}
	if !found {
		return ProgressReport{}, fmt.Errorf("judge %q: %w", judgeID, repository.ErrNotFound)
	}

	teams, err := s.store.Teams(ctx, eventID)
	if err != nil {
		return ProgressReport{}, err
	}
	subs, err := s.store.Submissions(ctx, eventID)
	if err != nil {
		return ProgressReport{}, err
	}
	totals := make(map[string]int, len(subs)) // teamID -> this judge's total
	for _, sub := range subs {
		if sub.JudgeID == judgeID {
			totals[sub.TeamID] = sub.Total()
		}
	}

	report.TeamsTotal = len(teams)
	report.Teams = make([]TeamProgress, 0, len(teams))
	for _, t := range teams {
		total, scored := totals[t.ID]
		if scored {
			report.TeamsScored++
		}
		report.Teams = append(report.Teams, TeamProgress{
			TeamID:     t.ID,
			TeamName:   t.Name,
			Status:     t.Status,
			Scored:     scored,
			JudgeTotal: total,
		})
	}
	return report, nil
}

// CompareReport is the deliberation view of two teams.
type CompareReport struct {
	Comparison consensus.Comparison          `json:"comparison"`
	Criterion  *consensus.CriterionBreakdown `json:"criteria_breakdown,omitempty"`
}

// Compare builds the head-to-head view of two teams, optionally with a
// per-criterion deep dive.
func (s *Service) Compare(ctx context.Context, eventID, team1ID, team2ID, criterionID string) (CompareReport, error) {
	entries, err := s.aggregate(ctx, eventID)
	if err != nil {
		return CompareReport{}, err
	}
	var e1, e2 *leaderboard.Entry
	for i := range entries {
		switch entries[i].TeamID {
		case team1ID:
			e1 = &entries[i]
		case team2ID:
			e2 = &entries[i]
		}
	}
	if e1 == nil {
		return CompareReport{}, fmt.Errorf("team %q: %w", team1ID, repository.ErrNotFound)
	}
	if e2 == nil {
		return CompareReport{}, fmt.Errorf("team %q: %w", team2ID, repository.ErrNotFound)
	}

	report := CompareReport{Comparison: consensus.Compare(*e1, *e2, s.thresholds)}
	if criterionID != "" {
		criteria, err := s.store.Criteria(ctx, eventID)
		if err != nil {
			return CompareReport{}, err
		}
		r, err := rubric.New(criteria)
		if err != nil {
			return CompareReport{}, err
		}
		c, ok := r.Get(criterionID)
		if !ok {
			return CompareReport{}, fmt.Errorf("criterion %q: %w", criterionID, repository.ErrNotFound)
		}
		bd := consensus.BreakdownByCriterion(*e1, *e2, c)
		report.Criterion = &bd
	}
	return report, nil
}

// Watch subscribes to the event's live refresh notices.
func (s *Service) Watch(ctx context.Context, eventID string) (<-chan live.Notice, func(), error) {
	if _, err := s.store.Event(ctx, eventID); err != nil {
		return nil, nil, err
	}
	if s.hub == nil {
		return nil, nil, fmt.Errorf("live updates are not enabled")
	}
	ch, cancel := s.hub.Watch(eventID)
	return ch, cancel, nil
}

func (s *Service) notify(eventID, reason string) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(live.Notice{EventID: eventID, Reason: reason, At: s.now().UTC()})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"uptime_seconds":       int(time.Since(s.startedAt).Seconds()),
		"submissions_accepted": s.submissionsAccepted.Load(),
		"duplicates_rejected":  s.duplicatesRejected.Load(),
		"validation_failures":  s.validationFailures.Load(),
	}
	if s.hub != nil {
		stats["watchers"] = s.hub.WatcherCount()
	}
	return stats
}
