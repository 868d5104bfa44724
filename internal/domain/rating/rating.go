// Package rating implements the pure pairwise rating engine. Every
// operation returns a new state value; callers own persistence.
package rating

import (
	"math"
	"sort"

	"github.com/okian/logoduel/internal/domain/model"
)

// Default engine configuration constants.
const (
	DefaultKFactor      = 32
	DefaultHistoryLimit = 1000
	logisticBase        = 10
	logisticDivisor     = 400
)

// Engine computes rating updates and matchups. It holds configuration only
// and never mutates a state in place.
type Engine struct {
	kFactor       float64
	defaultRating float64
	historyLimit  int
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		kFactor:       DefaultKFactor,
		defaultRating: model.DefaultRating,
		historyLimit:  DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HistoryLimit returns the configured history cap.
func (e *Engine) HistoryLimit() int { return e.historyLimit }

// expectedScore is the logistic win expectation of a player rated ra
// against one rated rb.
func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(logisticBase, (rb-ra)/logisticDivisor))
}

// ApplyMatch applies one decided match and returns the resulting state.
// Unknown participants start at the default rating. The new record is
// prepended to the history, which is trimmed to the history limit; the
// oldest records are dropped silently (the audit log keeps them).
func (e *Engine) ApplyMatch(state model.RatingState, match model.MatchRecord) model.RatingState {
	next := state.Clone()

	winner, ok := next.Entries[match.WinnerID]
	if !ok {
		winner = model.RatingEntry{Rating: e.defaultRating}
	}
	loser, ok := next.Entries[match.LoserID]
	if !ok {
		loser = model.RatingEntry{Rating: e.defaultRating}
	}

	expWinner := expectedScore(winner.Rating, loser.Rating)
	expLoser := expectedScore(loser.Rating, winner.Rating)

	winner.Rating += e.kFactor * (1 - expWinner)
	loser.Rating += e.kFactor * (0 - expLoser)
	winner.Wins++
	loser.Losses++
	winner.Matches++
	loser.Matches++

	next.Entries[match.WinnerID] = winner
	next.Entries[match.LoserID] = loser

	history := make([]model.MatchRecord, 0, len(next.History)+1)
	history = append(history, match)
	history = append(history, next.History...)
	if len(history) > e.historyLimit {
		history = history[:e.historyLimit]
	}
	next.History = history

	return next
}

// EnsureEntries adds a default entry for every roster id lacking one. When
// nothing is missing the original state is returned unchanged and the
// second return is false, so callers can skip redundant persistence.
func (e *Engine) EnsureEntries(state model.RatingState, roster []string) (model.RatingState, bool) {
	var missing []string
	for _, id := range roster {
		if _, ok := state.Entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return state, false
	}
	next := state.Clone()
	for _, id := range missing {
		next.Entries[id] = model.RatingEntry{Rating: e.defaultRating}
	}
	return next, true
}

// PruneEntries drops entries and history records referencing ids outside
// the roster. Dropping a match because one side left the roster loses
// snapshot-level fidelity on purpose; the audit log retains the original
// event.
func (e *Engine) PruneEntries(state model.RatingState, roster []string) (model.RatingState, bool) {
	active := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		active[id] = struct{}{}
	}

	changed := false
	for id := range state.Entries {
		if _, ok := active[id]; !ok {
			changed = true
			break
		}
	}
	if !changed {
		for _, m := range state.History {
			if _, ok := active[m.WinnerID]; !ok {
				changed = true
				break
			}
			if _, ok := active[m.LoserID]; !ok {
				changed = true
				break
			}
		}
	}
	if !changed {
		return state, false
	}

	next := model.NewRatingState()
	for id, entry := range state.Entries {
		if _, ok := active[id]; ok {
			next.Entries[id] = entry
		}
	}
	for _, m := range state.History {
		if _, winOK := active[m.WinnerID]; !winOK {
			continue
		}
		if _, loseOK := active[m.LoserID]; !loseOK {
			continue
		}
		next.History = append(next.History, m)
	}
	return next, true
}

// BlankState returns a state with every roster id at the default entry and
// an empty history, as produced by a contest reset.
func (e *Engine) BlankState(roster []string) model.RatingState {
	state := model.NewRatingState()
	for _, id := range roster {
		state.Entries[id] = model.RatingEntry{Rating: e.defaultRating}
	}
	return state
}

// Replay folds matches into a blank state in the order given.
func (e *Engine) Replay(matches []model.MatchRecord) model.RatingState {
	state := model.NewRatingState()
	for _, m := range matches {
		state = e.ApplyMatch(state, m)
	}
	return state
}

// SortMatches orders records by (timestamp, winnerId, loserId, voterHash)
// so replay is deterministic regardless of input order.
func SortMatches(matches []model.MatchRecord) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Less(matches[j])
	})
}
