package merge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/logoduel/internal/domain/model"
)

// legacyContestID is the contest that legacy single-contest exports merge
// into.
const legacyContestID = "main"

// RejectedRecord is a source record the merger refused, with the reason
// and the original bytes. Malformed input is reported, never silently
// dropped.
type RejectedRecord struct {
	File    string          `json:"file"`
	Contest string          `json:"contest"`
	Reason  string          `json:"reason"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// rawEntry decodes only what the merger needs from a source entry.
type rawEntry struct {
	Matches uint64 `json:"matches"`
}

// rawMatch tolerates the loose timestamp encodings seen in the wild:
// numeric epoch millis or an ISO string.
type rawMatch struct {
	WinnerID  string          `json:"winnerId"`
	LoserID   string          `json:"loserId"`
	Timestamp json.RawMessage `json:"timestamp"`
	VoterHash string          `json:"voterHash"`
}

type rawState struct {
	Entries map[string]rawEntry `json:"entries"`
	History []json.RawMessage   `json:"history"`
}

type rawLedger struct {
	State rawState `json:"state"`
}

// exportProbe covers both supported schemas: the current multi-contest
// document (contests keyed by id) and the legacy single-contest document
// (entries/history at the top level).
type exportProbe struct {
	Version  int                  `json:"version"`
	Contests map[string]rawLedger `json:"contests"`
	Entries  map[string]rawEntry  `json:"entries"`
	History  []json.RawMessage    `json:"history"`
}

// sourceContest accumulates one contest's sanitized matches from one
// source file.
type sourceContest struct {
	matches    []model.MatchRecord
	maxMatches uint64
}

// sourceFile is the parsed form of one vote export.
type sourceFile struct {
	path     string
	contests map[string]*sourceContest
	rejected []RejectedRecord
}

// parseExport decodes one export file in either schema.
func parseExport(path string, data []byte) (*sourceFile, error) {
	var probe exportProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadExport, path, err)
	}

	src := &sourceFile{path: path, contests: make(map[string]*sourceContest)}

	switch {
	case probe.Contests != nil:
		for contestID, ledger := range probe.Contests {
			src.addContest(contestID, ledger.State)
		}
	case probe.Entries != nil || probe.History != nil:
		src.addContest(legacyContestID, rawState{Entries: probe.Entries, History: probe.History})
	default:
		return nil, fmt.Errorf("%w: %s: neither contests nor entries/history present", ErrBadExport, path)
	}
	return src, nil
}

func (s *sourceFile) addContest(contestID string, state rawState) {
	contest, ok := s.contests[contestID]
	if !ok {
		contest = &sourceContest{}
		s.contests[contestID] = contest
	}
	for _, entry := range state.Entries {
		if entry.Matches > contest.maxMatches {
			contest.maxMatches = entry.Matches
		}
	}
	for _, raw := range state.History {
		match, err := sanitizeMatch(raw)
		if err != nil {
			s.rejected = append(s.rejected, RejectedRecord{
				File:    s.path,
				Contest: contestID,
				Reason:  err.Error(),
				Raw:     raw,
			})
			continue
		}
		contest.matches = append(contest.matches, match)
	}
}

// sanitizeMatch validates one history record and normalizes its timestamp
// and voter hash.
func sanitizeMatch(raw json.RawMessage) (model.MatchRecord, error) {
	var rm rawMatch
	if err := json.Unmarshal(raw, &rm); err != nil {
		return model.MatchRecord{}, fmt.Errorf("malformed match record: %w", err)
	}
	if rm.WinnerID == "" {
		return model.MatchRecord{}, fmt.Errorf("missing winner id")
	}
	if rm.LoserID == "" {
		return model.MatchRecord{}, fmt.Errorf("missing loser id")
	}
	ts, err := sanitizeTimestamp(rm.Timestamp)
	if err != nil {
		return model.MatchRecord{}, err
	}
	return model.MatchRecord{
		WinnerID:  rm.WinnerID,
		LoserID:   rm.LoserID,
		Timestamp: ts,
		VoterHash: strings.TrimSpace(rm.VoterHash),
	}, nil
}

// sanitizeTimestamp accepts a numeric epoch-millis value or an ISO 8601
// string.
func sanitizeTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing timestamp")
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if millis, err := asNumber.Int64(); err == nil {
			if millis <= 0 {
				return 0, fmt.Errorf("non-positive timestamp %s", asNumber)
			}
			return millis, nil
		}
		if f, err := asNumber.Float64(); err == nil && f > 0 {
			return int64(f), nil
		}
		return 0, fmt.Errorf("unparsable numeric timestamp %s", asNumber)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		t, err := time.Parse(time.RFC3339Nano, asString)
		if err != nil {
			return 0, fmt.Errorf("unparsable timestamp %q", asString)
		}
		return t.UnixMilli(), nil
	}

	return 0, fmt.Errorf("timestamp is neither a number nor a string")
}
