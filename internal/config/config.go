// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration for the vote ledger.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds votes.json, vote-events.ndjson, logos.json and backups/.
	DataDir string `koanf:"data_dir"`

	// DefaultContest is the contest used when a request names none.
	DefaultContest string `koanf:"default_contest"`

	// HistoryLimit caps the retained match history per contest.
	HistoryLimit int `koanf:"history_limit"`

	// KFactor bounds the rating swing from a single match.
	KFactor float64 `koanf:"k_factor"`

	// DefaultRating is assigned to logos before their first match.
	DefaultRating float64 `koanf:"default_rating"`

	// BackupMinIntervalMS throttles backup copies per prefix.
	BackupMinIntervalMS int `koanf:"backup_min_interval_ms"`

	// BackupMaxRetained caps the number of backups kept per prefix.
	BackupMaxRetained int `koanf:"backup_max_retained"`

	// LeaderboardSize caps the leaderboard returned by contest metrics.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// MetricsAddr is the listen address of the Prometheus metrics endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// WatchRoster enables fsnotify invalidation of the cached roster.
	WatchRoster bool `koanf:"watch_roster"`
}

// Default configuration constants.
const (
	defaultHistoryLimit   = 1000
	defaultKFactor        = 32
	defaultRating         = 1500
	defaultBackupInterval = 60_000
	defaultBackupRetained = 120
	defaultLeaderboard    = 10
	defaultMetricsAddr    = ":9090"
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		DataDir:             "./data",
		DefaultContest:      "main",
		HistoryLimit:        defaultHistoryLimit,
		KFactor:             defaultKFactor,
		DefaultRating:       defaultRating,
		BackupMinIntervalMS: defaultBackupInterval,
		BackupMaxRetained:   defaultBackupRetained,
		LeaderboardSize:     defaultLeaderboard,
		MetricsAddr:         defaultMetricsAddr,
		WatchRoster:         true,
	}
}
