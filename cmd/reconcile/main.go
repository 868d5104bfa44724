package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/logoduel/internal/adapters/audit"
	"github.com/okian/logoduel/internal/adapters/catalog"
	"github.com/okian/logoduel/internal/adapters/storage"
	service "github.com/okian/logoduel/internal/app"
	"github.com/okian/logoduel/pkg/logger"
)

// Data directory layout constants.
const (
	votesFileName  = "votes.json"
	eventsFileName = "vote-events.ndjson"
	logosFileName  = "logos.json"
	backupsDirName = "backups"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "Data directory holding votes.json and vote-events.ndjson")
		contest = flag.String("contest", "", "Contest to reconcile (default: the default active contest)")
		apply   = flag.Bool("apply", false, "Persist the recomputed state when drift is found (default: dry run)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	if err := run(context.Background(), *dataDir, *contest, !*apply); err != nil {
		os.Stderr.WriteString("reconcile failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, contest string, dryRun bool) error {
	backups := storage.NewBackupThrottler(filepath.Join(dataDir, backupsDirName))
	ledger := storage.NewLedgerFile(filepath.Join(dataDir, votesFileName), backups)
	events := audit.NewLog(filepath.Join(dataDir, eventsFileName))
	roster := catalog.NewFileCatalog(filepath.Join(dataDir, logosFileName))
	registry := catalog.NewStaticRegistry("main")

	svc := service.New(ledger, events, roster, registry)
	report, err := svc.Recalculate(ctx, contest, dryRun)
	if err != nil {
		return err
	}

	mode := "applied"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("contest %s: %d audit event(s) replayed (%s)\n", report.ContestID, report.EventsReplayed, mode)
	if !report.ChangesDetected {
		fmt.Println("no drift detected")
		return nil
	}

	fmt.Printf("%d entit(ies) drifted:\n", len(report.Differences))
	for _, diff := range report.Differences {
		fmt.Printf("  %s: rating %.2f -> %.2f (%+.2f), wins %d -> %d, losses %d -> %d, matches %d -> %d\n",
			diff.LogoID,
			diff.RatingBefore, diff.RatingAfter, diff.RatingDelta,
			diff.WinsBefore, diff.WinsAfter,
			diff.LossesBefore, diff.LossesAfter,
			diff.MatchesBefore, diff.MatchesAfter,
		)
	}
	if report.DryRun {
		fmt.Println("re-run with --apply to persist the recomputed state")
	}
	return nil
}
