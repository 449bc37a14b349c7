package demo

import "os"

// ShowHelp prints usage information for the demo tool.
func ShowHelp() {
	os.Stdout.WriteString(`Verdict Judging Demo
====================

Drives a complete judging day against a running verdict service:
seeds an event, opens judging, scores every team with every judge,
ends the event, and verifies the final leaderboard.

Usage:
  go run cmd/demo/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams int
        Number of teams to seed (default 12)
  -judges int
        Number of judges to seed (default 5)
  -workers int
        Number of concurrent judge workers (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -keep-open
        Leave the event in progress instead of ending it
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run against a local service with defaults
  go run cmd/demo/main.go

  # A bigger event with more concurrency
  go run cmd/demo/main.go -teams 40 -judges 8 -workers 16

  # Seed and score but keep judging open for manual exploration
  go run cmd/demo/main.go -keep-open
`)
}
