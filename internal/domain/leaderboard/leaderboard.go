// Package leaderboard derives rankings and per-team score statistics from
// score submissions.
//
// Aggregate is a pure function of its inputs. It never fails on
// schema-valid data: a team with zero submissions yields a fully
// populated zero-valued entry rather than an omitted row, because roster
// views depend on every team appearing.
package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/okian/verdict/internal/domain/model"
)

// TotalScoreCaveat warns callers about the unnormalized total. It is
// surfaced alongside the entries, not just implied by the numbers:
// a team scored by fewer judges shows a lower total regardless of
// quality, so cross-team comparisons should use avg_score.
const TotalScoreCaveat = "total_score accumulates across judges and favors teams scored by more judges; compare teams with avg_score"

// JudgeScore is one judge's contribution to a team's aggregate.
type JudgeScore struct {
	JudgeID          string                 `json:"judge_id"`
	JudgeName        string                 `json:"judge_name"`
	TotalScore       int                    `json:"total_score"`
	SubmittedAt      time.Time              `json:"submitted_at"`
	TimeSpentSeconds int                    `json:"time_spent_seconds"`
	CriteriaScores   []model.CriterionScore `json:"criteria_scores"`
}

// Entry is one team's derived leaderboard row. It is recomputed from
// submissions on every read and is never a source of truth.
type Entry struct {
	TeamID       string       `json:"team_id"`
	TeamName     string       `json:"team_name"`
	Rank         int          `json:"rank"`
	TotalScore   int          `json:"total_score"`
	AvgScore     float64      `json:"avg_score"`
	ScoreStddev  float64      `json:"score_stddev"`
	JudgesScored int          `json:"judges_scored"`
	JudgeScores  []JudgeScore `json:"judge_scores"`
}

// Aggregate computes a ranked entry for every team from the event's
// submissions. judges maps judge id to identity for the per-judge
// breakdown; an unknown judge id degrades to an empty name, never an
// error.
//
// Ranking is deterministic: avg_score descending, then total_score
// descending, then team creation order. Ranks are 1-based and contiguous
// even when scores tie.
func Aggregate(teams []model.Team, subs []model.Submission, judges []model.Judge) []Entry {
	judgeNames := make(map[string]string, len(judges))
	for _, j := range judges {
		judgeNames[j.ID] = j.Name
	}

	byTeam := make(map[string][]model.Submission, len(teams))
	for _, sub := range subs {
		byTeam[sub.TeamID] = append(byTeam[sub.TeamID], sub)
	}

	entries := make([]Entry, 0, len(teams))
	order := make(map[string]int, len(teams))
	for _, team := range teams {
		order[team.ID] = team.CreatedSeq
		entries = append(entries, teamEntry(team, byTeam[team.ID], judgeNames))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return order[a.TeamID] < order[b.TeamID]
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// EntryFor returns the aggregated entry for a single team, with its rank
// relative to all teams.
func EntryFor(teamID string, teams []model.Team, subs []model.Submission, judges []model.Judge) (Entry, bool) {
	for _, e := range Aggregate(teams, subs, judges) {
		if e.TeamID == teamID {
			return e, true
		}
	}
	return Entry{}, false
}

func teamEntry(team model.Team, subs []model.Submission, judgeNames map[string]string) Entry {
	e := Entry{
		TeamID:      team.ID,
		TeamName:    team.Name,
		JudgeScores: make([]JudgeScore, 0, len(subs)),
	}

	totals := make([]int, 0, len(subs))
	for _, sub := range subs {
		total := sub.Total()
		totals = append(totals, total)
		e.TotalScore += total
		e.JudgeScores = append(e.JudgeScores, JudgeScore{
			JudgeID:          sub.JudgeID,
			JudgeName:        judgeNames[sub.JudgeID],
			TotalScore:       total,
			SubmittedAt:      sub.SubmittedAt,
			TimeSpentSeconds: sub.TimeSpentSeconds,
			CriteriaScores:   sub.Scores,
		})
	}
	// Stable breakdown order regardless of submission arrival order.
	sort.Slice(e.JudgeScores, func(i, j int) bool {
		return e.JudgeScores[i].JudgeID < e.JudgeScores[j].JudgeID
	})

	e.JudgesScored = len(subs)
	if len(subs) > 0 {
		e.AvgScore = float64(e.TotalScore) / float64(len(subs))
	}
	e.ScoreStddev = populationStddev(totals)
	return e
}

// populationStddev returns the population standard deviation of totals,
// 0 for fewer than two values.
func populationStddev(totals []int) float64 {
	if len(totals) < 2 {
		return 0
	}
	sum := 0
	for _, t := range totals {
		sum += t
	}
	mean := float64(sum) / float64(len(totals))
	var sq float64
	for _, t := range totals {
		d := float64(t) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(totals)))
}
