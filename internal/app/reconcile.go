package service

import (
	"context"
	"sort"

	"github.com/okian/logoduel/internal/domain/dedupe"
	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// Difference reports one entity whose replayed values diverge from the
// persisted snapshot.
type Difference struct {
	LogoID string `json:"logoId"`

	RatingBefore float64 `json:"ratingBefore"`
	RatingAfter  float64 `json:"ratingAfter"`
	RatingDelta  float64 `json:"ratingDelta"`

	WinsBefore int64 `json:"winsBefore"`
	WinsAfter  int64 `json:"winsAfter"`
	WinsDelta  int64 `json:"winsDelta"`

	LossesBefore int64 `json:"lossesBefore"`
	LossesAfter  int64 `json:"lossesAfter"`
	LossesDelta  int64 `json:"lossesDelta"`

	MatchesBefore int64 `json:"matchesBefore"`
	MatchesAfter  int64 `json:"matchesAfter"`
	MatchesDelta  int64 `json:"matchesDelta"`
}

// ReconcileReport is the outcome of one audit-replay reconciliation.
type ReconcileReport struct {
	ContestID       string       `json:"contestId"`
	EventsReplayed  int          `json:"eventsReplayed"`
	ChangesDetected bool         `json:"changesDetected"`
	Differences     []Difference `json:"differences"`
	DryRun          bool         `json:"dryRun"`
}

// Recalculate replays the contest's audit events from the beginning of
// the stream through the rating engine and diffs the result against the
// persisted snapshot. Drift is always reported and never auto-corrected:
// the recomputed state is persisted (with a forced backup) only when
// dryRun is false.
func (s *Service) Recalculate(ctx context.Context, contestID string, dryRun bool) (ReconcileReport, error) {
	canonical, roster, err := s.resolve(ctx, contestID)
	if err != nil {
		return ReconcileReport{}, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	records, err := s.auditLog.ReadContest(ctx, canonical)
	if err != nil {
		return ReconcileReport{}, err
	}

	// Replay. Duplicate event ids (a retried append that landed twice)
	// are counted once.
	seen := dedupe.NewSetDeduper(dedupe.WithInitialCapacity(len(records)))
	replayed := model.NewRatingState()
	applied := 0
	for _, rec := range records {
		if seen.SeenAndRecord(ctx, rec.ID) {
			continue
		}
		switch event := rec.Event.(type) {
		case model.VoteRecorded:
			replayed = s.engine.ApplyMatch(replayed, event.Match)
		case model.VotesReset:
			replayed = model.NewRatingState()
		}
		applied++
	}

	doc, err := s.ledger.Load(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	led, _ := doc.Ledger(canonical)

	differences := diffEntries(led.State.Entries, replayed.Entries)
	report := ReconcileReport{
		ContestID:       canonical,
		EventsReplayed:  applied,
		ChangesDetected: len(differences) > 0,
		Differences:     differences,
		DryRun:          dryRun,
	}

	metrics.RecordReconcileRun()
	metrics.UpdateReconcileDrift(len(differences))

	if dryRun || !report.ChangesDetected {
		return report, nil
	}

	corrected, _ := s.engine.EnsureEntries(replayed, roster)
	now := s.now().UnixMilli()
	doc.Contests[canonical] = model.ContestLedger{State: corrected, UpdatedAt: now}
	doc.UpdatedAt = now
	if err := s.ledger.Save(ctx, doc, true); err != nil {
		return ReconcileReport{}, err
	}
	s.log.Info(ctx, "reconciliation corrected drift",
		logger.String("contest", canonical),
		logger.Int("entities", len(differences)),
		logger.Int("events", applied),
	)
	return report, nil
}

// diffEntries compares persisted and replayed entries over the union of
// ids. An id missing on either side compares as a fresh default entry, so
// a seeded-but-unplayed ledger shows no drift against an empty replay.
func diffEntries(persisted, replayed map[string]model.RatingEntry) []Difference {
	ids := make(map[string]struct{}, len(persisted)+len(replayed))
	for id := range persisted {
		ids[id] = struct{}{}
	}
	for id := range replayed {
		ids[id] = struct{}{}
	}

	var differences []Difference
	for id := range ids {
		before, ok := persisted[id]
		if !ok {
			before = model.NewRatingEntry()
		}
		after, ok := replayed[id]
		if !ok {
			after = model.NewRatingEntry()
		}
		if before == after {
			continue
		}
		differences = append(differences, Difference{
			LogoID:        id,
			RatingBefore:  before.Rating,
			RatingAfter:   after.Rating,
			RatingDelta:   after.Rating - before.Rating,
			WinsBefore:    int64(before.Wins),
			WinsAfter:     int64(after.Wins),
			WinsDelta:     int64(after.Wins) - int64(before.Wins),
			LossesBefore:  int64(before.Losses),
			LossesAfter:   int64(after.Losses),
			LossesDelta:   int64(after.Losses) - int64(before.Losses),
			MatchesBefore: int64(before.Matches),
			MatchesAfter:  int64(after.Matches),
			MatchesDelta:  int64(after.Matches) - int64(before.Matches),
		})
	}
	sort.Slice(differences, func(i, j int) bool {
		return differences[i].LogoID < differences[j].LogoID
	})
	return differences
}
