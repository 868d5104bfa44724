// Package service provides the vote store: the core business service the
// HTTP layer consumes to cast votes, serve matchups, and read
// leaderboards. It owns the canonical on-disk ledger.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/logoduel/internal/adapters/audit"
	"github.com/okian/logoduel/internal/adapters/catalog"
	"github.com/okian/logoduel/internal/adapters/storage"
	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultLeaderboardSize = 10
)

// Service orchestrates the rating engine, ledger store, audit log, and
// the external catalog/registry collaborators. Every read-modify-write of
// the ledger document holds fileMu; without that guard two concurrent
// votes could both read the pre-vote state and one write would silently
// overwrite the other.
type Service struct {
	engine   *rating.Engine
	ledger   *storage.LedgerFile
	auditLog *audit.Log
	roster   catalog.Roster
	registry catalog.Registry

	leaderboardSize int
	now             func() time.Time

	fileMu sync.Mutex

	log logger.Logger
}

// New constructs a Service over its collaborators with configuration
// options.
func New(ledger *storage.LedgerFile, auditLog *audit.Log, roster catalog.Roster, registry catalog.Registry, opts ...Option) *Service {
	s := &Service{
		engine:          rating.NewEngine(),
		ledger:          ledger,
		auditLog:        auditLog,
		roster:          roster,
		registry:        registry,
		leaderboardSize: defaultLeaderboardSize,
		now:             time.Now,
		log:             logger.Get().Named("votestore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve maps the caller's contest identifier to its canonical id and
// fetches the active roster.
func (s *Service) resolve(ctx context.Context, contestID string) (string, []string, error) {
	canonical, err := s.registry.Resolve(ctx, contestID)
	if err != nil {
		return "", nil, fmt.Errorf("resolve contest: %w", err)
	}
	roster, err := s.roster.ActiveIDs(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load roster: %w", err)
	}
	return canonical, roster, nil
}

// GetLedger returns the contest's rating state, reconciled against the
// active roster: missing entries are seeded and entries for removed logos
// are pruned. The result is persisted only when either step changed it.
func (s *Service) GetLedger(ctx context.Context, contestID string) (model.RatingState, error) {
	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return model.RatingState{}, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.syncRoster(ctx, canonical, roster)
}

// syncRoster loads the document and reconciles one contest's entries with
// the roster, persisting only on change. Callers hold fileMu.
func (s *Service) syncRoster(ctx context.Context, canonical string, roster []string) (model.RatingState, error) {
	doc, err := s.ledger.Load(ctx)
	if err != nil {
		return model.RatingState{}, err
	}

	led, _ := doc.Ledger(canonical)
	state, ensured := s.engine.EnsureEntries(led.State, roster)
	state, pruned := s.engine.PruneEntries(state, roster)
	if !ensured && !pruned {
		return state, nil
	}

	if pruned {
		// Pruning discards entries and history; keep a durable copy of
		// what is about to be dropped.
		if err := s.ledger.BackupNow(ctx); err != nil {
			return model.RatingState{}, err
		}
	}
	now := s.now().UnixMilli()
	doc.Contests[canonical] = model.ContestLedger{State: state, UpdatedAt: now}
	doc.UpdatedAt = now
	if err := s.ledger.Save(ctx, doc, pruned); err != nil {
		return model.RatingState{}, err
	}
	s.log.Debug(ctx, "roster sync persisted",
		logger.String("contest", canonical),
		logger.Bool("ensured", ensured),
		logger.Bool("pruned", pruned),
	)
	return state, nil
}

// RecordVote applies one vote and returns the resulting state. The state
// is persisted before the audit event is appended; a failed append is
// reported to the caller and will surface as drift at reconciliation.
func (s *Service) RecordVote(ctx context.Context, contestID, winnerID, loserID, voterHash string) (model.RatingState, error) {
	match := model.MatchRecord{
		WinnerID:  winnerID,
		LoserID:   loserID,
		Timestamp: s.now().UnixMilli(),
		VoterHash: strings.TrimSpace(voterHash),
	}
	if err := rating.ValidateMatch(match); err != nil {
		metrics.RecordVoteRejected()
		return model.RatingState{}, fmt.Errorf("%w: %w", ErrInvalidVote, err)
	}

	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return model.RatingState{}, err
	}
	if !contains(roster, winnerID) || !contains(roster, loserID) {
		metrics.RecordVoteRejected()
		return model.RatingState{}, fmt.Errorf("%w: %s vs %s", ErrNotInRoster, winnerID, loserID)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	doc, err := s.ledger.Load(ctx)
	if err != nil {
		return model.RatingState{}, err
	}
	led, _ := doc.Ledger(canonical)
	state, _ := s.engine.EnsureEntries(led.State, roster)

	winnerBefore := state.Entries[winnerID]
	loserBefore := state.Entries[loserID]

	next := s.engine.ApplyMatch(state, match)

	now := s.now().UnixMilli()
	doc.Contests[canonical] = model.ContestLedger{State: next, UpdatedAt: now}
	doc.UpdatedAt = now
	if err := s.ledger.Save(ctx, doc, false); err != nil {
		return model.RatingState{}, err
	}

	event := model.VoteRecorded{
		Match:         match,
		WinnerBefore:  winnerBefore,
		WinnerAfter:   next.Entries[winnerID],
		LoserBefore:   loserBefore,
		LoserAfter:    next.Entries[loserID],
		HistoryLength: len(next.History),
	}
	if err := s.auditLog.Append(ctx, audit.NewRecord(canonical, event)); err != nil {
		return model.RatingState{}, fmt.Errorf("vote persisted but not audited: %w", err)
	}

	metrics.RecordVote()
	s.log.Info(ctx, "vote recorded",
		logger.String("contest", canonical),
		logger.String("winner", winnerID),
		logger.String("loser", loserID),
		logger.Int("history", len(next.History)),
	)
	return next, nil
}

// ResetContestVotes blanks the contest back to default ratings for every
// active logo. A forced backup and the audit event both precede the
// destructive write.
func (s *Service) ResetContestVotes(ctx context.Context, contestID, reason, initiator string) error {
	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	doc, err := s.ledger.Load(ctx)
	if err != nil {
		return err
	}
	led, _ := doc.Ledger(canonical)
	previousMatches := led.State.MatchCount()

	if err := s.ledger.BackupNow(ctx); err != nil {
		return err
	}
	event := model.VotesReset{
		Reason:             reason,
		Initiator:          initiator,
		PreviousMatchCount: previousMatches,
	}
	if err := s.auditLog.Append(ctx, audit.NewRecord(canonical, event)); err != nil {
		return err
	}

	now := s.now().UnixMilli()
	doc.Contests[canonical] = model.ContestLedger{State: s.engine.BlankState(roster), UpdatedAt: now}
	doc.UpdatedAt = now
	if err := s.ledger.Save(ctx, doc, true); err != nil {
		return err
	}

	metrics.RecordReset()
	s.log.Info(ctx, "contest votes reset",
		logger.String("contest", canonical),
		logger.String("reason", reason),
		logger.Int("previousMatches", previousMatches),
	)
	return nil
}

// LeaderboardEntry is one leaderboard row joined with the roster.
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	LogoID  string  `json:"logoId"`
	Rating  float64 `json:"rating"`
	Wins    uint64  `json:"wins"`
	Losses  uint64  `json:"losses"`
	Matches uint64  `json:"matches"`
}

// ContestMetrics summarizes a contest for dashboards.
type ContestMetrics struct {
	ContestID   string             `json:"contestId"`
	LogoCount   int                `json:"logoCount"`
	MatchCount  int                `json:"matchCount"`
	TotalVotes  uint64             `json:"totalVotes"`
	LastMatchAt int64              `json:"lastMatchAt,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// GetMetrics derives contest statistics and the top-N leaderboard from
// the ledger joined with the active roster.
func (s *Service) GetMetrics(ctx context.Context, contestID string) (ContestMetrics, error) {
	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return ContestMetrics{}, err
	}

	s.fileMu.Lock()
	state, err := s.syncRoster(ctx, canonical, roster)
	s.fileMu.Unlock()
	if err != nil {
		return ContestMetrics{}, err
	}

	ranked := make([]LeaderboardEntry, 0, len(roster))
	var totalVotes uint64
	for _, id := range roster {
		entry := state.Entries[id]
		totalVotes += entry.Wins
		ranked = append(ranked, LeaderboardEntry{
			LogoID:  id,
			Rating:  entry.Rating,
			Wins:    entry.Wins,
			Losses:  entry.Losses,
			Matches: entry.Matches,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].LogoID < ranked[j].LogoID
	})
	if len(ranked) > s.leaderboardSize {
		ranked = ranked[:s.leaderboardSize]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ContestMetrics{
		ContestID:   canonical,
		LogoCount:   len(roster),
		MatchCount:  state.MatchCount(),
		TotalVotes:  totalVotes,
		LastMatchAt: state.LastMatchAt(),
		Leaderboard: ranked,
	}, nil
}

// NextMatchup returns the pair to present next, avoiding an immediate
// repeat of previous. Returns nil when the roster has fewer than two
// logos.
func (s *Service) NextMatchup(ctx context.Context, contestID string, previous *rating.Pair) (*rating.Pair, error) {
	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return nil, err
	}

	s.fileMu.Lock()
	state, err := s.syncRoster(ctx, canonical, roster)
	s.fileMu.Unlock()
	if err != nil {
		return nil, err
	}

	pair := s.engine.ProduceMatchup(roster, state.Entries, previous)
	if pair != nil {
		metrics.RecordMatchupServed()
	}
	return pair, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
