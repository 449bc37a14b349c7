package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/domain/model"
)

func seedEvent(ctx context.Context, store *repository.MemoryStore, phase model.Phase) model.Event {
	ev := model.Event{ID: "ev-1", Name: "Demo Day", Phase: phase}
	teams := []model.Team{
		{ID: "t1", Name: "Alpha", Status: model.TeamWaiting},
		{ID: "t2", Name: "Bravo", Status: model.TeamWaiting},
	}
	judges := []model.Judge{{ID: "j1", Name: "Ada"}, {ID: "j2", Name: "Grace"}}
	criteria := []model.Criterion{{ID: "overall", Name: "Overall", MaxScore: 100}}
	if err := store.CreateEvent(ctx, ev, teams, judges, criteria); err != nil {
		panic(err)
	}
	return ev
}

func storedSubmission(judgeID, teamID string) model.Submission {
	return model.Submission{
		ID:          judgeID + "-" + teamID,
		EventID:     "ev-1",
		TeamID:      teamID,
		JudgeID:     judgeID,
		Scores:      []model.CriterionScore{{CriterionID: "overall", Score: 80}},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestMemoryStore_CreateEvent(t *testing.T) {
	convey.Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		convey.Convey("When creating an event", func() {
			seedEvent(ctx, store, model.PhaseNotStarted)

			convey.Convey("Then the event and roster are readable", func() {
				ev, err := store.Event(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(ev.Phase, convey.ShouldEqual, model.PhaseNotStarted)

				teams, err := store.Teams(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(teams, convey.ShouldHaveLength, 2)
				convey.So(teams[0].CreatedSeq, convey.ShouldEqual, 0)
				convey.So(teams[1].CreatedSeq, convey.ShouldEqual, 1)

				judges, err := store.Judges(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(judges, convey.ShouldHaveLength, 2)

				criteria, err := store.Criteria(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(criteria, convey.ShouldHaveLength, 1)
			})

			convey.Convey("Then creating the same event again fails", func() {
				err := store.CreateEvent(ctx, model.Event{ID: "ev-1"}, nil, nil, nil)
				convey.So(err, convey.ShouldWrap, repository.ErrAlreadyExists)
			})
		})

		convey.Convey("When reading an unknown event", func() {
			_, err := store.Event(ctx, "missing")
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)

			_, err = store.Teams(ctx, "missing")
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestMemoryStore_SetTeamStatus(t *testing.T) {
	convey.Convey("Given an event in progress", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedEvent(ctx, store, model.PhaseInProgress)

		convey.Convey("When moving a team between statuses", func() {
			team, err := store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamActive)
			convey.So(err, convey.ShouldBeNil)
			convey.So(team.Status, convey.ShouldEqual, model.TeamActive)

			convey.Convey("Then any status is reachable from any other", func() {
				team, err = store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamCompleted)
				convey.So(err, convey.ShouldBeNil)
				team, err = store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamWaiting)
				convey.So(err, convey.ShouldBeNil)
				convey.So(team.Status, convey.ShouldEqual, model.TeamWaiting)
			})
		})

		convey.Convey("When the team does not exist", func() {
			_, err := store.SetTeamStatus(ctx, "ev-1", "ghost", model.TeamActive)
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})
	})

	convey.Convey("Given an ended event", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedEvent(ctx, store, model.PhaseEnded)

		convey.Convey("Then team statuses are frozen", func() {
			_, err := store.SetTeamStatus(ctx, "ev-1", "t1", model.TeamActive)
			convey.So(err, convey.ShouldWrap, repository.ErrEventEnded)
		})
	})
}

func TestMemoryStore_AdvancePhase(t *testing.T) {
	convey.Convey("Given an event in the not-started phase", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedEvent(ctx, store, model.PhaseNotStarted)

		convey.Convey("When advancing with the correct precondition", func() {
			ev, err := store.AdvancePhase(ctx, "ev-1", model.PhaseNotStarted, model.PhaseInProgress)

			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Phase, convey.ShouldEqual, model.PhaseInProgress)
		})

		convey.Convey("When the precondition phase does not match", func() {
			_, err := store.AdvancePhase(ctx, "ev-1", model.PhaseInProgress, model.PhaseEnded)

			convey.So(err, convey.ShouldWrap, repository.ErrPhaseConflict)
		})

		convey.Convey("When two transitions race", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = store.AdvancePhase(ctx, "ev-1", model.PhaseNotStarted, model.PhaseInProgress)
				}(i)
			}
			wg.Wait()

			convey.Convey("Then exactly one wins", func() {
				winners := 0
				for _, err := range errs {
					if err == nil {
						winners++
					}
				}
				convey.So(winners, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStore_CreateSubmission(t *testing.T) {
	convey.Convey("Given an event in progress", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		seedEvent(ctx, store, model.PhaseInProgress)

		convey.Convey("When one judge scores one team", func() {
			err := store.CreateSubmission(ctx, storedSubmission("j1", "t1"))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then a second submission for the same pair is rejected", func() {
				dup := storedSubmission("j1", "t1")
				dup.ID = "different-id"
				err := store.CreateSubmission(ctx, dup)
				convey.So(err, convey.ShouldWrap, repository.ErrDuplicateSubmission)

				subs, err := store.Submissions(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(subs, convey.ShouldHaveLength, 1)
			})

			convey.Convey("Then the same judge may score another team", func() {
				convey.So(store.CreateSubmission(ctx, storedSubmission("j1", "t2")), convey.ShouldBeNil)
			})

			convey.Convey("Then another judge may score the same team", func() {
				convey.So(store.CreateSubmission(ctx, storedSubmission("j2", "t1")), convey.ShouldBeNil)
			})
		})

		convey.Convey("When many concurrent retries hit the same pair", func() {
			const attempts = 32
			var wg sync.WaitGroup
			results := make([]error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					sub := storedSubmission("j1", "t1")
					sub.ID = fmt.Sprintf("attempt-%d", i)
					results[i] = store.CreateSubmission(ctx, sub)
				}(i)
			}
			wg.Wait()

			convey.Convey("Then exactly one lands", func() {
				accepted := 0
				for _, err := range results {
					if err == nil {
						accepted++
					}
				}
				convey.So(accepted, convey.ShouldEqual, 1)

				subs, err := store.Submissions(ctx, "ev-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(subs, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When the event is unknown", func() {
			sub := storedSubmission("j1", "t1")
			sub.EventID = "missing"
			err := store.CreateSubmission(ctx, sub)
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})
	})
}
