package merge

import (
	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
)

// MergerOption applies a configuration option to the Merger.
type MergerOption func(*Merger)

// WithEngine replaces the default rating engine, typically to set a
// custom history limit.
func WithEngine(engine *rating.Engine) MergerOption {
	return func(m *Merger) {
		if engine != nil {
			m.engine = engine
		}
	}
}

// WithRoster re-ensures an entry for every roster id in the merged
// output, even ids with zero matches.
func WithRoster(roster []string) MergerOption {
	return func(m *Merger) {
		m.roster = roster
	}
}

// WithContestFilter restricts the merge to the named contests. An empty
// filter merges everything.
func WithContestFilter(contests []string) MergerOption {
	return func(m *Merger) {
		if len(contests) == 0 {
			return
		}
		m.filter = make(map[string]struct{}, len(contests))
		for _, id := range contests {
			m.filter[id] = struct{}{}
		}
	}
}

// WithOutputDir sets the directory merged files are written to.
func WithOutputDir(dir string) MergerOption {
	return func(m *Merger) {
		if dir != "" {
			m.outputDir = dir
		}
	}
}

// WithDryRun computes and reports without writing any output.
func WithDryRun(dryRun bool) MergerOption {
	return func(m *Merger) {
		m.dryRun = dryRun
	}
}

// WithTimestamp overrides the updatedAt source, used by tests for
// byte-stable outputs.
func WithTimestamp(now func() int64) MergerOption {
	return func(m *Merger) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets a custom logger for the merger.
func WithLogger(log logger.Logger) MergerOption {
	return func(m *Merger) {
		if log != nil {
			m.log = log
		}
	}
}
