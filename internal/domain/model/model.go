// Package model contains the persisted domain types shared between layers.
package model

import "strconv"

// DefaultRating is the rating assigned to a logo before its first match.
const DefaultRating = 1500

// RatingEntry tracks a single logo's skill estimate and match tally.
// The matches == wins + losses invariant is checked by reconciliation,
// not enforced on write.
type RatingEntry struct {
	Rating  float64 `json:"rating"`
	Wins    uint64  `json:"wins"`
	Losses  uint64  `json:"losses"`
	Matches uint64  `json:"matches"`
}

// NewRatingEntry returns a fresh entry at the default rating.
func NewRatingEntry() RatingEntry {
	return RatingEntry{Rating: DefaultRating}
}

// MatchRecord captures one decided pairwise comparison.
type MatchRecord struct {
	WinnerID  string `json:"winnerId"`
	LoserID   string `json:"loserId"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	VoterHash string `json:"voterHash,omitempty"`
}

// Key returns the deduplication key for this match. Two records with the
// same key are considered the same vote.
func (m MatchRecord) Key() string {
	return strconv.FormatInt(m.Timestamp, 10) + "|" + m.WinnerID + "|" + m.LoserID + "|" + m.VoterHash
}

// Less orders records by (timestamp, winnerId, loserId, voterHash) for
// deterministic replay.
func (m MatchRecord) Less(o MatchRecord) bool {
	if m.Timestamp != o.Timestamp {
		return m.Timestamp < o.Timestamp
	}
	if m.WinnerID != o.WinnerID {
		return m.WinnerID < o.WinnerID
	}
	if m.LoserID != o.LoserID {
		return m.LoserID < o.LoserID
	}
	return m.VoterHash < o.VoterHash
}

// RatingState is the full rating snapshot for one contest. History is held
// newest first and capped by the engine's history limit.
type RatingState struct {
	Entries map[string]RatingEntry `json:"entries"`
	History []MatchRecord          `json:"history"`
}

// NewRatingState returns an empty state with an allocated entries map.
func NewRatingState() RatingState {
	return RatingState{Entries: make(map[string]RatingEntry)}
}

// Clone returns a deep copy of the state. Engine operations never mutate
// their input; they clone and return a new value.
func (s RatingState) Clone() RatingState {
	out := RatingState{
		Entries: make(map[string]RatingEntry, len(s.Entries)),
		History: make([]MatchRecord, len(s.History)),
	}
	for id, e := range s.Entries {
		out.Entries[id] = e
	}
	copy(out.History, s.History)
	return out
}

// MatchCount returns the number of retained history records.
func (s RatingState) MatchCount() int {
	return len(s.History)
}

// LastMatchAt returns the timestamp of the most recent match, or zero when
// the history is empty.
func (s RatingState) LastMatchAt() int64 {
	if len(s.History) == 0 {
		return 0
	}
	return s.History[0].Timestamp
}

// ContestLedger wraps the per-contest rating state with its last write time.
type ContestLedger struct {
	State     RatingState `json:"state"`
	UpdatedAt int64       `json:"updatedAt"` // epoch millis
}

// VotesFileVersion is the current on-disk schema version of votes.json.
const VotesFileVersion = 2

// VotesFile is the multi-contest on-disk document. Contests are created
// lazily and never deleted, only blanked on reset.
type VotesFile struct {
	Version   int                      `json:"version"`
	Contests  map[string]ContestLedger `json:"contests"`
	UpdatedAt int64                    `json:"updatedAt"`
}

// NewVotesFile returns an empty document at the current schema version.
func NewVotesFile() VotesFile {
	return VotesFile{
		Version:  VotesFileVersion,
		Contests: make(map[string]ContestLedger),
	}
}

// Ledger returns the ledger for a contest, or an empty one when the contest
// has never been written.
func (f VotesFile) Ledger(contestID string) (ContestLedger, bool) {
	l, ok := f.Contests[contestID]
	if !ok {
		return ContestLedger{State: NewRatingState()}, false
	}
	if l.State.Entries == nil {
		l.State.Entries = make(map[string]RatingEntry)
	}
	return l, true
}
