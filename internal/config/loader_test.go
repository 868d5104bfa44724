package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/logoduel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.DataDir, convey.ShouldEqual, "./data")
				convey.So(cfg.DefaultContest, convey.ShouldEqual, "main")
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 1000)
				convey.So(cfg.KFactor, convey.ShouldEqual, 32)
				convey.So(cfg.DefaultRating, convey.ShouldEqual, 1500)
				convey.So(cfg.BackupMinIntervalMS, convey.ShouldEqual, 60_000)
				convey.So(cfg.BackupMaxRetained, convey.ShouldEqual, 120)
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 10)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WatchRoster, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LOGODUEL_DATA_DIR", "/var/lib/logoduel")
			_ = os.Setenv("LOGODUEL_DEFAULT_CONTEST", "spring")
			_ = os.Setenv("LOGODUEL_HISTORY_LIMIT", "500")
			_ = os.Setenv("LOGODUEL_K_FACTOR", "24")
			_ = os.Setenv("LOGODUEL_BACKUP_MAX_RETAINED", "30")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/logoduel")
				convey.So(cfg.DefaultContest, convey.ShouldEqual, "spring")
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 500)
				convey.So(cfg.KFactor, convey.ShouldEqual, 24)
				convey.So(cfg.BackupMaxRetained, convey.ShouldEqual, 30)
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
log_level: debug
data_dir: /tmp/ledger
history_limit: 250
leaderboard_size: 5
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("LOGODUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/ledger")
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 250)
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 5)
				convey.So(cfg.DefaultContest, convey.ShouldEqual, "main")
			})
		})

		convey.Convey("When env vars override the YAML file", func() {
			tmpFile := createTempConfigFile(t, "history_limit: 250\n")

			_ = os.Setenv("LOGODUEL_CONFIG", tmpFile)
			_ = os.Setenv("LOGODUEL_HISTORY_LIMIT", "750")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env var wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 750)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("LOGODUEL_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the load sentinel", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("LOGODUEL_HISTORY_LIMIT", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the invalid sentinel", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the default contest is blanked", func() {
			_ = os.Setenv("LOGODUEL_DEFAULT_CONTEST", "")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// clearConfigEnvVars removes all LOGODUEL_* variables used by the loader.
func clearConfigEnvVars() {
	for _, key := range []string{
		"LOGODUEL_CONFIG",
		"LOGODUEL_LOG_LEVEL",
		"LOGODUEL_DATA_DIR",
		"LOGODUEL_DEFAULT_CONTEST",
		"LOGODUEL_HISTORY_LIMIT",
		"LOGODUEL_K_FACTOR",
		"LOGODUEL_DEFAULT_RATING",
		"LOGODUEL_BACKUP_MIN_INTERVAL_MS",
		"LOGODUEL_BACKUP_MAX_RETAINED",
		"LOGODUEL_LEADERBOARD_SIZE",
		"LOGODUEL_METRICS_ADDR",
		"LOGODUEL_WATCH_ROSTER",
	} {
		_ = os.Unsetenv(key)
	}
}

// createTempConfigFile writes YAML content to a temp file and returns its path.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return f.Name()
}
