package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/logoduel/internal/adapters/audit"
	"github.com/okian/logoduel/internal/adapters/catalog"
	"github.com/okian/logoduel/internal/adapters/storage"
	service "github.com/okian/logoduel/internal/app"
	"github.com/okian/logoduel/internal/config"
	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// HTTP server and updater timing constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	contestMetricsInterval = 15 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	backups := storage.NewBackupThrottler(filepath.Join(cfg.DataDir, "backups"),
		storage.WithMinInterval(time.Duration(cfg.BackupMinIntervalMS)*time.Millisecond),
		storage.WithMaxRetained(cfg.BackupMaxRetained),
	)
	ledger := storage.NewLedgerFile(filepath.Join(cfg.DataDir, "votes.json"), backups)
	events := audit.NewLog(filepath.Join(cfg.DataDir, "vote-events.ndjson"))
	roster := catalog.NewFileCatalog(filepath.Join(cfg.DataDir, "logos.json"))
	registry := catalog.NewStaticRegistry(cfg.DefaultContest)

	engine := rating.NewEngine(
		rating.WithKFactor(cfg.KFactor),
		rating.WithDefaultRating(cfg.DefaultRating),
		rating.WithHistoryLimit(cfg.HistoryLimit),
	)
	svc := service.New(ledger, events, roster, registry,
		service.WithEngine(engine),
		service.WithLeaderboardSize(cfg.LeaderboardSize),
		service.WithLogger(log),
	)

	// Warm the ledger so roster seeding and the contest gauges happen at
	// startup, not on the first request.
	if _, err := svc.GetLedger(ctx, ""); err != nil {
		os.Stderr.WriteString("failed to open ledger: " + err.Error() + "\n")
		return
	}

	if cfg.WatchRoster {
		if err := roster.Watch(ctx); err != nil {
			log.Warn(ctx, "roster watch unavailable", logger.Error(err))
		}
	}

	// Keep the contest gauges fresh between votes.
	go startContestMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "stopped")
}

// startContestMetricsUpdater periodically recomputes the default contest's
// summary so tracked-contest and tracked-logo gauges stay current even when
// no votes arrive.
func startContestMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(contestMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.GetMetrics(ctx, ""); err != nil {
				logger.Get().Warn(ctx, "contest metrics refresh failed", logger.Error(err))
			}
		}
	}
}
