package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind discriminates audit event payloads.
type EventKind string

// Audit event kinds.
const (
	KindVoteRecorded EventKind = "vote-recorded"
	KindVotesReset   EventKind = "votes-reset"
)

// AuditEvent is implemented by every audit payload. The set of
// implementations is closed: VoteRecorded and VotesReset.
type AuditEvent interface {
	Kind() EventKind
}

// VoteRecorded captures a single vote with full before/after snapshots of
// both participants, so the event stream alone can reproduce every rating
// transition.
type VoteRecorded struct {
	Match         MatchRecord `json:"match"`
	WinnerBefore  RatingEntry `json:"winnerBefore"`
	WinnerAfter   RatingEntry `json:"winnerAfter"`
	LoserBefore   RatingEntry `json:"loserBefore"`
	LoserAfter    RatingEntry `json:"loserAfter"`
	HistoryLength int         `json:"historyLength"`
}

// Kind implements AuditEvent.
func (VoteRecorded) Kind() EventKind { return KindVoteRecorded }

// VotesReset records a contest being blanked back to default ratings.
type VotesReset struct {
	Reason             string `json:"reason"`
	Initiator          string `json:"initiator,omitempty"`
	PreviousMatchCount int    `json:"previousMatchCount"`
}

// Kind implements AuditEvent.
func (VotesReset) Kind() EventKind { return KindVotesReset }

// AuditRecord is one physical line of the append-only event stream.
type AuditRecord struct {
	ID         string
	OccurredAt time.Time
	ContestID  string
	Event      AuditEvent
}

// wireRecord is the NDJSON envelope. The payload is decoded after the kind
// is known so unknown kinds fail loudly instead of producing a half-typed
// record.
type wireRecord struct {
	ID         string          `json:"id"`
	Type       EventKind       `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	ContestID  string          `json:"contestId"`
	Payload    json.RawMessage `json:"payload"`
}

// MarshalJSON implements json.Marshaler.
func (r AuditRecord) MarshalJSON() ([]byte, error) {
	if r.Event == nil {
		return nil, fmt.Errorf("audit record %s: nil event", r.ID)
	}
	payload, err := json.Marshal(r.Event)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return json.Marshal(wireRecord{
		ID:         r.ID,
		Type:       r.Event.Kind(),
		OccurredAt: r.OccurredAt,
		ContestID:  r.ContestID,
		Payload:    payload,
	})
}

// UnmarshalJSON implements json.Unmarshaler with exhaustive kind matching.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.ID = w.ID
	r.OccurredAt = w.OccurredAt
	r.ContestID = w.ContestID
	switch w.Type {
	case KindVoteRecorded:
		var e VoteRecorded
		if err := json.Unmarshal(w.Payload, &e); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		r.Event = e
	case KindVotesReset:
		var e VotesReset
		if err := json.Unmarshal(w.Payload, &e); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		r.Event = e
	default:
		return fmt.Errorf("unknown audit event type %q", w.Type)
	}
	return nil
}
