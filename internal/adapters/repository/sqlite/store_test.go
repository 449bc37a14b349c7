package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/adapters/repository/sqlite"
	"github.com/okian/verdict/internal/domain/model"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "verdict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *sqlite.Store, phase model.Phase) {
	t.Helper()
	ev := model.Event{ID: "ev-1", Name: "Demo Day", Phase: phase}
	teams := []model.Team{
		{ID: "t1", Name: "Alpha", Status: model.TeamWaiting, Members: []string{"kim", "sam"}},
		{ID: "t2", Name: "Bravo", Status: model.TeamWaiting},
	}
	judges := []model.Judge{{ID: "j1", Name: "Ada"}, {ID: "j2", Name: "Grace"}}
	criteria := []model.Criterion{
		{ID: "problem", Name: "Problem Understanding", MaxScore: 25},
		{ID: "solution", Name: "Solution & Impact", MaxScore: 25},
	}
	require.NoError(t, store.CreateEvent(context.Background(), ev, teams, judges, criteria))
}

func submissionFixture(judgeID, teamID string) model.Submission {
	return model.Submission{
		ID:      judgeID + "-" + teamID,
		EventID: "ev-1",
		TeamID:  teamID,
		JudgeID: judgeID,
		Scores: []model.CriterionScore{
			{CriterionID: "problem", Score: 20, Reflection: "clear framing"},
			{CriterionID: "solution", Score: 18},
		},
		Comments:         "solid work",
		SubmittedAt:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		TimeSpentSeconds: 240,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	require.Error(t, err)
}

func TestStore_EventRoundTrip(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseNotStarted)
	ctx := context.Background()

	ev, err := store.Event(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, "Demo Day", ev.Name)
	require.Equal(t, model.PhaseNotStarted, ev.Phase)

	teams, err := store.Teams(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	require.Equal(t, "t1", teams[0].ID)
	require.Equal(t, 0, teams[0].CreatedSeq)
	require.Equal(t, []string{"kim", "sam"}, teams[0].Members)
	require.Nil(t, teams[1].Members)

	judges, err := store.Judges(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, judges, 2)

	criteria, err := store.Criteria(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, criteria, 2)
	require.Equal(t, "problem", criteria[0].ID)

	_, err = store.Event(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_CreateEventDuplicate(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseNotStarted)

	err := store.CreateEvent(context.Background(), model.Event{ID: "ev-1", Name: "Again"}, nil, nil, nil)
	require.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestStore_SubmissionRoundTrip(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseInProgress)
	ctx := context.Background()

	require.NoError(t, store.CreateSubmission(ctx, submissionFixture("j1", "t1")))

	subs, err := store.Submissions(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	got := subs[0]
	require.Equal(t, "j1", got.JudgeID)
	require.Equal(t, "t1", got.TeamID)
	require.Equal(t, "solid work", got.Comments)
	require.Equal(t, 240, got.TimeSpentSeconds)
	require.Equal(t, 38, got.Total())
	require.Len(t, got.Scores, 2)
	require.Equal(t, "clear framing", got.Scores[0].Reflection)
	require.True(t, got.SubmittedAt.Equal(submissionFixture("j1", "t1").SubmittedAt))
}

func TestStore_DuplicateSubmission(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseInProgress)
	ctx := context.Background()

	require.NoError(t, store.CreateSubmission(ctx, submissionFixture("j1", "t1")))

	dup := submissionFixture("j1", "t1")
	dup.ID = "retry-with-new-id"
	err := store.CreateSubmission(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicateSubmission)

	// Other pairs are unaffected.
	require.NoError(t, store.CreateSubmission(ctx, submissionFixture("j1", "t2")))
	require.NoError(t, store.CreateSubmission(ctx, submissionFixture("j2", "t1")))

	subs, err := store.Submissions(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, subs, 3)
}

func TestStore_SetTeamStatus(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseInProgress)
	ctx := context.Background()

	team, err := store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamActive)
	require.NoError(t, err)
	require.Equal(t, model.TeamActive, team.Status)

	_, err = store.SetTeamStatus(ctx, "ev-1", "ghost", model.TeamActive)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.AdvancePhase(ctx, "ev-1", model.PhaseInProgress, model.PhaseEnded)
	require.NoError(t, err)

	_, err = store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamCompleted)
	require.ErrorIs(t, err, repository.ErrEventEnded)

	// The freeze left the last written status in place.
	team, err = store.Team(ctx, "ev-1", "t1")
	require.NoError(t, err)
	require.Equal(t, model.TeamActive, team.Status)
}

func TestStore_AdvancePhase(t *testing.T) {
	store := openStore(t)
	seed(t, store, model.PhaseNotStarted)
	ctx := context.Background()

	ev, err := store.AdvancePhase(ctx, "ev-1", model.PhaseNotStarted, model.PhaseInProgress)
	require.NoError(t, err)
	require.Equal(t, model.PhaseInProgress, ev.Phase)

	// Replaying the same transition hits the conditional update.
	_, err = store.AdvancePhase(ctx, "ev-1", model.PhaseNotStarted, model.PhaseInProgress)
	require.ErrorIs(t, err, repository.ErrPhaseConflict)

	ev, err = store.AdvancePhase(ctx, "ev-1", model.PhaseInProgress, model.PhaseEnded)
	require.NoError(t, err)
	require.Equal(t, model.PhaseEnded, ev.Phase)

	_, err = store.AdvancePhase(ctx, "ev-1", model.PhaseInProgress, model.PhaseEnded)
	require.ErrorIs(t, err, repository.ErrPhaseConflict)

	_, err = store.AdvancePhase(ctx, "missing", model.PhaseNotStarted, model.PhaseInProgress)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verdict.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	seed(t, store, model.PhaseInProgress)
	require.NoError(t, store.CreateSubmission(context.Background(), submissionFixture("j1", "t1")))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	subs, err := reopened.Submissions(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, 38, subs[0].Total())
}
