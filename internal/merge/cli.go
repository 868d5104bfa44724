package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/logoduel/internal/adapters/catalog"
	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
)

// Config carries the merge CLI's parsed flags.
type Config struct {
	InputDir   string
	OutputDir  string
	LogosPath  string
	Contests   []string
	MaxHistory int
	DryRun     bool
	Verbose    bool
}

// Run executes one merge per the CLI configuration and prints a report to
// stdout. The logger must be initialized by the caller.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.InputDir == "" {
		return fmt.Errorf("--input is required")
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	inputs, err := listExports(cfg.InputDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no .json files in %s", ErrNoInputs, cfg.InputDir)
	}

	opts := []MergerOption{
		WithContestFilter(cfg.Contests),
		WithDryRun(cfg.DryRun),
	}
	if cfg.MaxHistory > 0 {
		opts = append(opts, WithEngine(rating.NewEngine(rating.WithHistoryLimit(cfg.MaxHistory))))
	}
	if cfg.OutputDir != "" {
		opts = append(opts, WithOutputDir(cfg.OutputDir))
	} else {
		opts = append(opts, WithOutputDir(cfg.InputDir))
	}
	if cfg.LogosPath != "" {
		roster, err := catalog.NewFileCatalog(cfg.LogosPath).ActiveIDs(ctx)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		opts = append(opts, WithRoster(roster))
	}

	report, err := NewMerger(opts...).Run(ctx, inputs)
	if err != nil {
		return err
	}
	printReport(os.Stdout, report, cfg.Verbose)
	return nil
}

// listExports returns the JSON files directly inside dir, sorted. Files
// produced by a previous merge run are included on purpose: re-merging a
// merged file is a no-op thanks to deduplication.
func listExports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(inputs)
	return inputs, nil
}

// printReport writes a human-readable merge summary.
func printReport(w *os.File, report Report, verbose bool) {
	mode := "merged"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "%s %d input file(s), %d contest(s)\n", mode, report.Inputs, len(report.Contests))
	for _, contest := range report.Contests {
		fmt.Fprintf(w, "  %s: %d matches, %d duplicates dropped, %d rejected",
			contest.ContestID, contest.Matches, contest.Duplicates, contest.Rejected)
		if contest.Written {
			fmt.Fprintf(w, " -> %s", contest.OutputPath)
		}
		fmt.Fprintln(w)
		if contest.TruncationWarning != "" {
			fmt.Fprintf(w, "  warning: %s\n", contest.TruncationWarning)
		}
	}
	if len(report.Rejected) > 0 {
		fmt.Fprintf(w, "%d record(s) rejected\n", len(report.Rejected))
		if verbose {
			for _, rej := range report.Rejected {
				fmt.Fprintf(w, "  %s [%s]: %s\n", rej.File, rej.Contest, rej.Reason)
			}
		}
	}
}

// ShowHelp prints usage information for the merge tool.
func ShowHelp() {
	os.Stdout.WriteString(`logoduel vote-export merge tool
===============================

Combines independently captured vote export files into one canonical
ledger file per contest. Votes are deduplicated, sorted, and replayed
deterministically through the rating engine.

Usage:
  mergevotes --input <dir> [options]

Options:
  --input string
        Directory containing vote export .json files (required)
  --output string
        Directory for merged-<contest>.json files (default: the input directory)
  --logos string
        Path to logos.json; every active logo gets a ledger entry even
        with zero matches
  --contest string
        Only merge the named contest; repeatable
  --max-history int
        Cap on retained history records per contest (default 1000)
  --dry-run
        Compute and report without writing any file
  --verbose
        Debug logging and per-record rejection reasons
  --help
        Show this help message

Examples:
  # Merge everything found in ./exports into ./merged
  mergevotes --input ./exports --output ./merged --logos ./data/logos.json

  # Preview a single contest without writing
  mergevotes --input ./exports --contest main --dry-run --verbose
`)
}
