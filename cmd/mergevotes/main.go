package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/okian/logoduel/internal/merge"
	"github.com/okian/logoduel/pkg/logger"
)

// Default configuration constants.
const (
	defaultMaxHistory = 1000
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	var contests stringList
	var (
		input      = flag.String("input", "", "Directory containing vote export files (required)")
		output     = flag.String("output", "", "Directory for merged output files (default: input directory)")
		logos      = flag.String("logos", "", "Path to logos.json for roster re-ensuring")
		maxHistory = flag.Int("max-history", defaultMaxHistory, "Cap on retained history records per contest")
		dryRun     = flag.Bool("dry-run", false, "Compute and report without writing")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Var(&contests, "contest", "Only merge the named contest (repeatable)")
	flag.Parse()

	if *help {
		merge.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &merge.Config{
		InputDir:   *input,
		OutputDir:  *output,
		LogosPath:  *logos,
		Contests:   contests,
		MaxHistory: *maxHistory,
		DryRun:     *dryRun,
		Verbose:    *verbose,
	}
	if err := merge.Run(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("merge failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
