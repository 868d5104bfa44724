// Package merge implements the offline vote-export merger: it combines
// independently captured export files into one canonical ledger per
// contest by deduplicating, sorting, and replaying every vote through the
// rating engine.
package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/logoduel/internal/adapters/storage"
	"github.com/okian/logoduel/internal/domain/dedupe"
	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// ContestReport summarizes the merge outcome for one contest.
type ContestReport struct {
	ContestID         string `json:"contestId"`
	Matches           int    `json:"matches"`
	Duplicates        int    `json:"duplicates"`
	Rejected          int    `json:"rejected"`
	MaxMatchCounter   uint64 `json:"maxMatchCounter"`
	TruncationWarning string `json:"truncationWarning,omitempty"`
	OutputPath        string `json:"outputPath,omitempty"`
	Written           bool   `json:"written"`
}

// Report is the full outcome of one merge run.
type Report struct {
	Inputs   int              `json:"inputs"`
	Contests []ContestReport  `json:"contests"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
	DryRun   bool             `json:"dryRun"`
}

// Merger combines vote exports deterministically: the same inputs always
// replay to the same canonical state regardless of file or record order.
type Merger struct {
	engine    *rating.Engine
	roster    []string
	filter    map[string]struct{}
	outputDir string
	dryRun    bool
	now       func() int64

	log logger.Logger
}

// NewMerger creates a merger with configuration options.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{
		engine:    rating.NewEngine(),
		outputDir: ".",
		log:       logger.Get().Named("merge"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run merges the given export files. Inputs are parsed concurrently but
// combined in sorted path order so the result does not depend on
// goroutine scheduling.
func (m *Merger) Run(ctx context.Context, inputs []string) (Report, error) {
	if len(inputs) == 0 {
		return Report{}, ErrNoInputs
	}

	paths := make([]string, len(inputs))
	copy(paths, inputs)
	sort.Strings(paths)

	sources := make([]*sourceFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read export %s: %w", path, err)
			}
			src, err := parseExport(path, data)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Inputs: len(paths), DryRun: m.dryRun}

	// Combine per contest in source order.
	type accumulator struct {
		deduper    dedupe.Deduper
		matches    []model.MatchRecord
		duplicates int
		rejected   int
		maxMatches uint64
	}
	combined := make(map[string]*accumulator)
	lookup := func(contestID string) *accumulator {
		acc, ok := combined[contestID]
		if !ok {
			acc = &accumulator{deduper: dedupe.NewSetDeduper()}
			combined[contestID] = acc
		}
		return acc
	}
	for _, src := range sources {
		for _, rej := range src.rejected {
			if !m.included(rej.Contest) {
				continue
			}
			report.Rejected = append(report.Rejected, rej)
			lookup(rej.Contest).rejected++
		}
		for contestID, contest := range src.contests {
			if !m.included(contestID) {
				continue
			}
			acc := lookup(contestID)
			if contest.maxMatches > acc.maxMatches {
				acc.maxMatches = contest.maxMatches
			}
			for _, match := range contest.matches {
				if acc.deduper.SeenAndRecord(ctx, match.Key()) {
					acc.duplicates++
					continue
				}
				acc.matches = append(acc.matches, match)
			}
		}
	}

	contestIDs := make([]string, 0, len(combined))
	for id := range combined {
		contestIDs = append(contestIDs, id)
	}
	sort.Strings(contestIDs)

	for _, contestID := range contestIDs {
		acc := combined[contestID]

		rating.SortMatches(acc.matches)
		state := m.engine.Replay(acc.matches)
		if len(m.roster) > 0 {
			state, _ = m.engine.EnsureEntries(state, m.roster)
		}

		contestReport := ContestReport{
			ContestID:       contestID,
			Matches:         len(acc.matches),
			Duplicates:      acc.duplicates,
			Rejected:        acc.rejected,
			MaxMatchCounter: acc.maxMatches,
		}
		if acc.maxMatches > uint64(len(acc.matches)) {
			missing := acc.maxMatches - uint64(len(acc.matches))
			contestReport.TruncationWarning = fmt.Sprintf(
				"max per-entity match counter %d exceeds %d deduplicated matches; upstream history was likely truncated (~%d matches missing)",
				acc.maxMatches, len(acc.matches), missing,
			)
			m.log.Warn(ctx, "possible truncated source history",
				logger.String("contest", contestID),
				logger.Int64("maxCounter", int64(acc.maxMatches)),
				logger.Int("deduplicated", len(acc.matches)),
			)
		}

		metrics.RecordMergeDuplicates(acc.duplicates)
		metrics.RecordMergeRejected(acc.rejected)

		outputPath := filepath.Join(m.outputDir, "merged-"+contestID+".json")
		contestReport.OutputPath = outputPath
		if !m.dryRun {
			if err := m.writeMerged(outputPath, contestID, state); err != nil {
				return Report{}, err
			}
			contestReport.Written = true
		}
		report.Contests = append(report.Contests, contestReport)

		m.log.Info(ctx, "contest merged",
			logger.String("contest", contestID),
			logger.Int("matches", len(acc.matches)),
			logger.Int("duplicates", acc.duplicates),
			logger.Int("rejected", acc.rejected),
			logger.Bool("dryRun", m.dryRun),
		)
	}

	return report, nil
}

// writeMerged persists one contest's canonical state in the current
// multi-contest schema.
func (m *Merger) writeMerged(path, contestID string, state model.RatingState) error {
	now := m.timestamp()
	doc := model.NewVotesFile()
	doc.Contests[contestID] = model.ContestLedger{State: state, UpdatedAt: now}
	doc.UpdatedAt = now

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merged ledger: %w", err)
	}
	data = append(data, '\n')
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write merged ledger: %w", err)
	}
	return nil
}

func (m *Merger) included(contestID string) bool {
	if len(m.filter) == 0 {
		return true
	}
	_, ok := m.filter[contestID]
	return ok
}

func (m *Merger) timestamp() int64 {
	if m.now != nil {
		return m.now()
	}
	return time.Now().UnixMilli()
}
