// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorePath points at the SQLite database file. Empty selects the
	// in-memory store (state lost on restart).
	StorePath string `koanf:"store_path"`

	// ConsensusHighStddev and ConsensusWideStddev are the consistency
	// bucket cut points: stddev below the first is "high" agreement,
	// at or above the second is "wide". Presentation heuristics, tunable.
	ConsensusHighStddev float64 `koanf:"consensus_high_stddev"`
	ConsensusWideStddev float64 `koanf:"consensus_wide_stddev"`

	// WatchBufferSize bounds each live watcher's notice buffer. Notices
	// beyond the buffer are dropped, never blocking the writer.
	WatchBufferSize int `koanf:"watch_buffer_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		StorePath:           "",
		ConsensusHighStddev: 5,
		ConsensusWideStddev: 10,
		WatchBufferSize:     16,
	}
}
