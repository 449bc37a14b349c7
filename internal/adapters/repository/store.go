// Package repository defines the persistence contract for judging state
// and its sentinel errors.
//
// The correctness-critical guarantees live here rather than in callers:
// at most one submission per (event, judge, team) pair, conditional phase
// transitions, and the post-ended freeze on team status. Implementations
// must enforce all three atomically so concurrent retries cannot race a
// check-then-act in application code.
package repository

import (
	"context"

	"github.com/okian/verdict/internal/domain/model"
)

// Store provides read/write access to judging state.
type Store interface {
	// CreateEvent records an event together with its teams, judges, and
	// rubric criteria in one shot. Returns ErrAlreadyExists if the event
	// id is taken.
	CreateEvent(ctx context.Context, ev model.Event, teams []model.Team, judges []model.Judge, criteria []model.Criterion) error

	// Event returns the event, or ErrNotFound.
	Event(ctx context.Context, eventID string) (model.Event, error)

	// Teams returns the event's teams in creation order.
	Teams(ctx context.Context, eventID string) ([]model.Team, error)

	// Team returns one team, or ErrNotFound.
	Team(ctx context.Context, eventID, teamID string) (model.Team, error)

	// Judges returns the event's judge roster.
	Judges(ctx context.Context, eventID string) ([]model.Judge, error)

	// Criteria returns the event's rubric criteria in definition order.
	Criteria(ctx context.Context, eventID string) ([]model.Criterion, error)

	// SetTeamStatus moves a team to the given status. Any status is
	// reachable from any other, but every change is rejected with
	// ErrEventEnded once the owning event's phase is ended.
	SetTeamStatus(ctx context.Context, eventID, teamID string, status model.TeamStatus) (model.Team, error)

	// AdvancePhase conditionally moves the event from phase `from` to
	// `next`. Returns ErrPhaseConflict when the current phase differs
	// from `from`, so two concurrent terminal transitions cannot both
	// succeed.
	AdvancePhase(ctx context.Context, eventID string, from, next model.Phase) (model.Event, error)

	// CreateSubmission records a submission. Returns
	// ErrDuplicateSubmission when one already exists for the same
	// (event, judge, team) pair; the pair is unique by constraint, not
	// by a prior read.
	CreateSubmission(ctx context.Context, sub model.Submission) error

	// Submissions returns all submissions for the event.
	Submissions(ctx context.Context, eventID string) ([]model.Submission, error)
}
