package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/verdict/internal/demo"
	"github.com/okian/verdict/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams      = 12
	defaultJudges     = 5
	defaultWorkers    = 4
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams    = flag.Int("teams", defaultTeams, "Number of teams to seed")
		judges   = flag.Int("judges", defaultJudges, "Number of judges to seed")
		workers  = flag.Int("workers", defaultWorkers, "Number of concurrent judge workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		keepOpen = flag.Bool("keep-open", false, "Leave the event in progress instead of ending it")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		demo.ShowHelp()
		return
	}
	if *teams < 1 || *judges < 1 || *workers < 1 {
		os.Stderr.WriteString("teams, judges, and workers must all be positive\n")
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &demo.Config{
		BaseURL:  *baseURL,
		Teams:    *teams,
		Judges:   *judges,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
		KeepOpen: *keepOpen,
	}

	if err := demo.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Demo failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
