package demo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/verdict/pkg/logger"
)

// Run executes the complete demo judging day.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting judging demo",
		logger.String("baseURL", config.BaseURL),
		logger.Int("teams", config.Teams),
		logger.Int("judges", config.Judges),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	api := newClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := api.health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed the event
	eventID, teams, judgeIDs, err := seedEvent(ctx, api, config, stats)
	if err != nil {
		return fmt.Errorf("event seeding failed: %w", err)
	}

	// Step 3: Open judging
	if err := api.setPhase(ctx, eventID, "start"); err != nil {
		return fmt.Errorf("start judging failed: %w", err)
	}
	logger.Get().Info(ctx, "judging started", logger.String("eventID", eventID))

	// Step 4: Run the judging day concurrently
	if err := runJudgingDay(ctx, api, config, eventID, teams, judgeIDs, stats); err != nil {
		return fmt.Errorf("judging simulation failed: %w", err)
	}

	// Step 5: End judging unless asked to keep the event open
	if !config.KeepOpen {
		if err := api.setPhase(ctx, eventID, "end"); err != nil {
			return fmt.Errorf("end judging failed: %w", err)
		}
		logger.Get().Info(ctx, "judging ended", logger.String("eventID", eventID))
	}

	// Step 6: Fetch and verify the leaderboard
	if err := verifyLeaderboard(ctx, api, config, eventID, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

// seedEvent creates the event with generated teams and judges.
func seedEvent(ctx context.Context, api *client, config *Config, stats *Stats) (string, []teamResponse, []string, error) {
	req := createEventRequest{
		Name:   fmt.Sprintf("Demo Day %s", time.Now().Format("2006-01-02 15:04")),
		Teams:  make([]teamSeed, config.Teams),
		Judges: make([]judgeSeed, config.Judges),
	}
	judgeIDs := make([]string, config.Judges)
	for i := range req.Teams {
		req.Teams[i] = teamSeed{Name: teamName(i)}
	}
	for i := range req.Judges {
		judgeIDs[i] = fmt.Sprintf("judge-%02d", i+1)
		req.Judges[i] = judgeSeed{ID: judgeIDs[i], Name: judgeName(i)}
	}

	ev, err := api.createEvent(ctx, req)
	if err != nil {
		return "", nil, nil, err
	}
	teams, err := api.teams(ctx, ev.ID)
	if err != nil {
		return "", nil, nil, err
	}

	stats.TeamsSeeded = len(teams)
	stats.JudgesSeeded = len(judgeIDs)
	logger.Get().Info(ctx, "event seeded",
		logger.String("eventID", ev.ID),
		logger.Int("teams", stats.TeamsSeeded),
		logger.Int("judges", stats.JudgesSeeded))
	return ev.ID, teams, judgeIDs, nil
}

// judgingTask is one judge scoring one team.
type judgingTask struct {
	judgeID string
	teamID  string
	profile int
}

// runJudgingDay moves every team through the queue while judge workers
// submit scores. Every judge scores every team, so the final leaderboard
// has full coverage and the event can end cleanly.
func runJudgingDay(ctx context.Context, api *client, config *Config, eventID string, teams []teamResponse, judgeIDs []string, stats *Stats) error {
	criteria, err := api.criteria(ctx, eventID)
	if err != nil {
		return err
	}

	var submitted, duplicate, failed atomic.Int64
	tasks := make(chan judgingTask, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				req := scoreRequest{
					JudgeID:          task.judgeID,
					TeamID:           task.teamID,
					Scores:           scoresFor(task.profile, criteria),
					TimeSpentSeconds: 60 + randomInt(540),
				}
				receipt, err := api.submitScore(ctx, eventID, req)
				switch {
				case err == nil:
					submitted.Add(1)
					if config.Verbose {
						logger.Get().Debug(ctx, "score submitted",
							logger.String("judgeID", task.judgeID),
							logger.String("teamID", task.teamID),
							logger.Int("total", receipt.TotalScore))
					}
				case isDuplicate(err):
					duplicate.Add(1)
				default:
					failed.Add(1)
					logger.Get().Warn(ctx, "score submission failed",
						logger.String("judgeID", task.judgeID),
						logger.String("teamID", task.teamID),
						logger.Error(err))
				}
			}
		}()
	}

	// Walk the queue: each team goes active, gets scored by every judge,
	// then completes. Teams are dispatched before their status flips to
	// completed so the workers race realistically with the moderator.
	for i, team := range teams {
		if err := api.setTeamStatus(ctx, eventID, team.ID, "active"); err != nil {
			close(tasks)
			return err
		}
		stats.StatusChanges++

		profile := i % profileCount
		for _, judgeID := range judgeIDs {
			select {
			case tasks <- judgingTask{judgeID: judgeID, teamID: team.ID, profile: profile}:
			case <-ctx.Done():
				close(tasks)
				return ctx.Err()
			}
		}
	}
	close(tasks)
	wg.Wait()

	// Completion pass after all scores landed.
	for _, team := range teams {
		if err := api.setTeamStatus(ctx, eventID, team.ID, "completed"); err != nil {
			return err
		}
		stats.StatusChanges++
	}

	stats.ScoresSubmitted = int(submitted.Load())
	stats.ScoresDuplicate = int(duplicate.Load())
	stats.ScoresFailed = int(failed.Load())
	if stats.ScoresFailed > 0 {
		return fmt.Errorf("%d score submissions failed", stats.ScoresFailed)
	}
	return nil
}

// verifyLeaderboard fetches the final leaderboard and checks the
// ordering and coverage invariants hold from the outside.
func verifyLeaderboard(ctx context.Context, api *client, config *Config, eventID string, stats *Stats) error {
	view, err := api.leaderboard(ctx, eventID)
	if err != nil {
		return err
	}
	stats.LeaderboardEntries = len(view.Entries)

	if len(view.Entries) != stats.TeamsSeeded {
		return fmt.Errorf("leaderboard has %d entries, expected %d", len(view.Entries), stats.TeamsSeeded)
	}
	if !config.KeepOpen && !view.Final {
		return fmt.Errorf("leaderboard not marked final after event ended")
	}
	for i, entry := range view.Entries {
		if entry.Rank != i+1 {
			return fmt.Errorf("rank %d at position %d, expected contiguous ranks", entry.Rank, i)
		}
		if i > 0 && entry.AvgScore > view.Entries[i-1].AvgScore {
			return fmt.Errorf("team %q out of order: avg %.2f above predecessor", entry.TeamID, entry.AvgScore)
		}
		if entry.JudgesScored != stats.JudgesSeeded {
			return fmt.Errorf("team %q scored by %d judges, expected %d", entry.TeamID, entry.JudgesScored, stats.JudgesSeeded)
		}
	}

	top := view.Entries[0]
	logger.Get().Info(ctx, "leaderboard verified",
		logger.String("winner", top.TeamName),
		logger.Float64("winnerAvg", top.AvgScore),
		logger.Float64("winnerStddev", top.ScoreStddev),
		logger.Int("entries", stats.LeaderboardEntries))
	return nil
}

// displayFinalStats logs the run summary.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "demo complete",
		logger.Int("teams", stats.TeamsSeeded),
		logger.Int("judges", stats.JudgesSeeded),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("duplicates", stats.ScoresDuplicate),
		logger.Int("statusChanges", stats.StatusChanges),
		logger.Duration("duration", stats.Duration))
}
