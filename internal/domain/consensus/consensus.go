// Package consensus provides deliberation tooling over aggregated
// leaderboard entries: head-to-head comparisons, judge-agreement tallies,
// and consistency classification.
//
// Everything here is read-only over leaderboard entries.
package consensus

import (
	"github.com/okian/verdict/internal/domain/leaderboard"
	"github.com/okian/verdict/internal/domain/model"
)

// Bucket classifies how tightly a team's judges agree, from the
// population stddev of their totals.
type Bucket string

// Consistency buckets.
const (
	BucketHigh     Bucket = "high"
	BucketModerate Bucket = "moderate"
	BucketWide     Bucket = "wide"
)

// Thresholds are the stddev cut points for the consistency buckets.
// They are presentation heuristics, not domain law; tune via config.
type Thresholds struct {
	// High is the exclusive upper bound for the "high" bucket.
	High float64
	// Wide is the inclusive lower bound for the "wide" bucket.
	Wide float64
}

// DefaultThresholds returns the observed defaults: stddev < 5 is high,
// 5-10 is moderate, >= 10 is wide.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 5, Wide: 10}
}

// Classify maps a score stddev to its consistency bucket.
func (t Thresholds) Classify(stddev float64) Bucket {
	switch {
	case stddev < t.High:
		return BucketHigh
	case stddev < t.Wide:
		return BucketModerate
	default:
		return BucketWide
	}
}

// Comparison is the head-to-head view of two teams.
type Comparison struct {
	Team1ID string `json:"team1_id"`
	Team2ID string `json:"team2_id"`

	// Judge agreement: of the judges who scored both teams, how many
	// strictly preferred each side. Judges who scored only one team are
	// excluded; judges with equal totals count for neither.
	Team1Preferred int `json:"team1_preferred"`
	Team2Preferred int `json:"team2_preferred"`
	SharedJudges   int `json:"shared_judges"`

	// ScoreGap is the absolute difference of the unnormalized totals.
	ScoreGap int `json:"score_gap"`

	Team1Consistency Bucket `json:"team1_consistency"`
	Team2Consistency Bucket `json:"team2_consistency"`
}

// Compare builds the head-to-head comparison for two aggregated entries.
func Compare(a, b leaderboard.Entry, t Thresholds) Comparison {
	cmp := Comparison{
		Team1ID:          a.TeamID,
		Team2ID:          b.TeamID,
		ScoreGap:         abs(a.TotalScore - b.TotalScore),
		Team1Consistency: t.Classify(a.ScoreStddev),
		Team2Consistency: t.Classify(b.ScoreStddev),
	}

	bTotals := make(map[string]int, len(b.JudgeScores))
	for _, js := range b.JudgeScores {
		bTotals[js.JudgeID] = js.TotalScore
	}
	for _, js := range a.JudgeScores {
		other, ok := bTotals[js.JudgeID]
		if !ok {
			continue
		}
		cmp.SharedJudges++
		switch {
		case js.TotalScore > other:
			cmp.Team1Preferred++
		case js.TotalScore < other:
			cmp.Team2Preferred++
		}
	}
	return cmp
}

// CriterionBreakdown is the per-criterion deep dive between two teams.
// Max possible values are computed independently per team so teams scored
// by different judge counts are not penalized by a shared denominator.
type CriterionBreakdown struct {
	CriterionID      string `json:"criteria_id"`
	CriterionName    string `json:"criteria_name"`
	Team1Total       int    `json:"team1_total"`
	Team2Total       int    `json:"team2_total"`
	Team1MaxPossible int    `json:"team1_max_possible"`
	Team2MaxPossible int    `json:"team2_max_possible"`

	// Difference is team1 minus team2.
	Difference int `json:"difference"`
}

// BreakdownByCriterion sums each team's per-judge scores for one
// criterion across all judges who scored that team.
func BreakdownByCriterion(a, b leaderboard.Entry, c model.Criterion) CriterionBreakdown {
	bd := CriterionBreakdown{
		CriterionID:      c.ID,
		CriterionName:    c.Name,
		Team1Total:       criterionSum(a, c.ID),
		Team2Total:       criterionSum(b, c.ID),
		Team1MaxPossible: c.MaxScore * a.JudgesScored,
		Team2MaxPossible: c.MaxScore * b.JudgesScored,
	}
	bd.Difference = bd.Team1Total - bd.Team2Total
	return bd
}

func criterionSum(e leaderboard.Entry, criterionID string) int {
	sum := 0
	for _, js := range e.JudgeScores {
		for _, cs := range js.CriteriaScores {
			if cs.CriterionID == criterionID {
				sum += cs.Score
			}
		}
	}
	return sum
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
