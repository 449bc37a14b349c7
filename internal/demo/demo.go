// Package demo drives a complete judging day against a running service:
// it seeds an event, opens judging, walks every team through the queue
// while judges score concurrently, ends the event, and verifies the
// final leaderboard.
package demo

import "time"

// Config holds configuration for the demo run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Teams    int           // Number of teams to seed
	Judges   int           // Number of judges to seed
	Workers  int           // Number of concurrent judge workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Enable verbose logging
	KeepOpen bool          // Leave the event in progress instead of ending it
}

// Stats holds demo run statistics.
type Stats struct {
	TeamsSeeded        int
	JudgesSeeded       int
	ScoresSubmitted    int
	ScoresDuplicate    int
	ScoresFailed       int
	StatusChanges      int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// Wire types mirroring the service's JSON surface. The demo talks to the
// API like any external client and deliberately avoids importing the
// server's internals.

type eventResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"judging_phase"`
}

type teamResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type criterionScore struct {
	CriterionID string `json:"criteria_id"`
	Score       int    `json:"score"`
	Reflection  string `json:"reflection,omitempty"`
}

type scoreRequest struct {
	JudgeID          string           `json:"judge_id"`
	Scores           []criterionScore `json:"criteria_scores"`
	Comments         string           `json:"overall_comments,omitempty"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	TeamID           string           `json:"team_id"`
}

type receiptResponse struct {
	SubmissionID string `json:"submission_id"`
	TotalScore   int    `json:"total_score"`
}

type leaderboardEntry struct {
	TeamID       string  `json:"team_id"`
	TeamName     string  `json:"team_name"`
	Rank         int     `json:"rank"`
	TotalScore   int     `json:"total_score"`
	AvgScore     float64 `json:"avg_score"`
	ScoreStddev  float64 `json:"score_stddev"`
	JudgesScored int     `json:"judges_scored"`
}

type leaderboardResponse struct {
	EventID string             `json:"event_id"`
	Phase   string             `json:"judging_phase"`
	Final   bool               `json:"final"`
	Entries []leaderboardEntry `json:"entries"`
}
