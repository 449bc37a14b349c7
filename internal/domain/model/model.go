// Package model contains domain records passed between layers.
package model

import "time"

// TeamStatus tracks a team's position in the physical judging queue.
// It is independent of how many judges have scored the team.
type TeamStatus string

// Team statuses. Any status is reachable from any other by moderator
// action while the event is not ended.
const (
	TeamWaiting   TeamStatus = "waiting"
	TeamActive    TeamStatus = "active"
	TeamCompleted TeamStatus = "completed"
)

// Valid reports whether s is a known team status.
func (s TeamStatus) Valid() bool {
	switch s {
	case TeamWaiting, TeamActive, TeamCompleted:
		return true
	}
	return false
}

func (s TeamStatus) String() string { return string(s) }

// Phase is the event-wide judging phase. Transitions are forward-only
// and PhaseEnded is terminal.
type Phase string

// Judging phases.
const (
	PhaseNotStarted Phase = "not-started"
	PhaseInProgress Phase = "in-progress"
	PhaseEnded      Phase = "ended"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseNotStarted, PhaseInProgress, PhaseEnded:
		return true
	}
	return false
}

func (p Phase) String() string { return string(p) }

// Criterion is one scored dimension of a team's evaluation. Criteria are
// fixed at event setup and never mutated during judging.
type Criterion struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ShortName       string `json:"short_name"`
	Description     string `json:"description"`
	GuidingQuestion string `json:"guiding_question"`
	MaxScore        int    `json:"max_score"`
}

// CriterionScore is one judge's score for one criterion.
type CriterionScore struct {
	CriterionID string `json:"criteria_id"`
	Score       int    `json:"score"`
	Reflection  string `json:"reflection,omitempty"`
}

// Submission records one judge's finalized evaluation of one team.
// At most one submission exists per (event, judge, team); the store
// enforces this, not the caller.
type Submission struct {
	ID               string           `json:"id"`
	EventID          string           `json:"event_id"`
	TeamID           string           `json:"team_id"`
	JudgeID          string           `json:"judge_id"`
	Scores           []CriterionScore `json:"criteria_scores"`
	Comments         string           `json:"overall_comments,omitempty"`
	SubmittedAt      time.Time        `json:"submitted_at"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
}

// Total returns the judge total: the sum of all criterion scores.
// Every code path that needs a submission total goes through here so the
// receipt shown at submit time and the aggregate computed at read time
// can never drift.
func (s Submission) Total() int {
	total := 0
	for _, cs := range s.Scores {
		total += cs.Score
	}
	return total
}

// CriterionScoreByID returns the score for one criterion, if present.
func (s Submission) CriterionScoreByID(criterionID string) (CriterionScore, bool) {
	for _, cs := range s.Scores {
		if cs.CriterionID == criterionID {
			return cs, true
		}
	}
	return CriterionScore{}, false
}

// Judge identifies a scoring judge. Identity resolution (who is allowed
// to claim a judge id) belongs to the surrounding application.
type Judge struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team is a judged project team. CreatedSeq preserves creation order and
// serves as the final rank tiebreak.
type Team struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	Name        string     `json:"name"`
	Status      TeamStatus `json:"status"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	ProjectURL  string     `json:"project_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Members     []string   `json:"members,omitempty"`
	CreatedSeq  int        `json:"-"`
}

// Event is a judging event.
type Event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phase Phase  `json:"judging_phase"`
}

// AllTeamsCompleted reports whether teams is non-empty and every team is
// in the completed status. It gates the terminal phase transition.
func AllTeamsCompleted(teams []Team) bool {
	if len(teams) == 0 {
		return false
	}
	for _, t := range teams {
		if t.Status != TeamCompleted {
			return false
		}
	}
	return true
}
