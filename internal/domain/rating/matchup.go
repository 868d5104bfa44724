package rating

import (
	"sort"

	"github.com/okian/logoduel/internal/domain/model"
)

// Pair is an ordered matchup: the least-exposed candidate first, its
// chosen challenger second. Equality checks ignore order.
type Pair struct {
	A string
	B string
}

// SameUnordered reports whether both pairs cover the same two ids.
func (p Pair) SameUnordered(o Pair) bool {
	return (p.A == o.A && p.B == o.B) || (p.A == o.B && p.B == o.A)
}

// ProduceMatchup selects the next pair to present. The primary is the
// candidate with the fewest matches (ties broken by lower rating, then id);
// its challenger is the one closest in rating (ties broken by fewer
// matches, then id). The pair equal to previous is skipped; when no
// alternative pairing exists the first pairing found is returned anyway.
// Returns nil when fewer than two candidates exist.
func (e *Engine) ProduceMatchup(roster []string, entries map[string]model.RatingEntry, previous *Pair) *Pair {
	if len(roster) < 2 {
		return nil
	}

	lookup := func(id string) model.RatingEntry {
		if entry, ok := entries[id]; ok {
			return entry
		}
		return model.RatingEntry{Rating: e.defaultRating}
	}

	candidates := make([]string, len(roster))
	copy(candidates, roster)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := lookup(candidates[i]), lookup(candidates[j])
		if a.Matches != b.Matches {
			return a.Matches < b.Matches
		}
		if a.Rating != b.Rating {
			return a.Rating < b.Rating
		}
		return candidates[i] < candidates[j]
	})

	primary := candidates[0]
	primaryEntry := lookup(primary)

	challengers := make([]string, 0, len(candidates)-1)
	challengers = append(challengers, candidates[1:]...)
	sort.Slice(challengers, func(i, j int) bool {
		a, b := lookup(challengers[i]), lookup(challengers[j])
		da := abs(a.Rating - primaryEntry.Rating)
		db := abs(b.Rating - primaryEntry.Rating)
		if da != db {
			return da < db
		}
		if a.Matches != b.Matches {
			return a.Matches < b.Matches
		}
		return challengers[i] < challengers[j]
	})

	fallback := Pair{A: primary, B: challengers[0]}
	for _, challenger := range challengers {
		pair := Pair{A: primary, B: challenger}
		if previous != nil && pair.SameUnordered(*previous) {
			continue
		}
		return &pair
	}
	return &fallback
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
