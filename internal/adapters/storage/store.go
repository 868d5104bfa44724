package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// LedgerFile owns the canonical votes.json document. Loads fall back to a
// seeded default on schema problems and attempt a backup restore on
// corruption; saves go through the atomic writer and feed the backup
// throttler.
type LedgerFile struct {
	path    string
	prefix  string
	backups *BackupThrottler
	log     logger.Logger
}

// NewLedgerFile creates a store for the document at path. The backup
// prefix is derived from the filename.
func NewLedgerFile(path string, backups *BackupThrottler, opts ...LedgerOption) *LedgerFile {
	s := &LedgerFile{
		path:    path,
		prefix:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		backups: backups,
		log:     logger.Get().Named("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document location.
func (s *LedgerFile) Path() string { return s.path }

// Prefix returns the backup prefix for this document.
func (s *LedgerFile) Prefix() string { return s.prefix }

// Load reads the document. A missing file yields a fresh seeded document.
// When the file fails to parse, the newest valid backup is restored and
// re-read before the original parse error is surfaced.
func (s *LedgerFile) Load(ctx context.Context) (model.VotesFile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerLoadLatency(float64(time.Since(start).Milliseconds()))
	}()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewVotesFile(), nil
		}
		return model.VotesFile{}, fmt.Errorf("read ledger file: %w", err)
	}

	doc, parseErr := s.decode(ctx, data)
	if parseErr == nil {
		return doc, nil
	}

	s.log.Warn(ctx, "ledger file corrupt, attempting backup restore",
		logger.String("path", s.path),
		logger.Error(parseErr),
	)
	if restoreErr := s.backups.RestoreLatest(ctx, s.prefix, s.path); restoreErr != nil {
		s.log.Error(ctx, "backup restore failed",
			logger.String("path", s.path),
			logger.Error(restoreErr),
		)
		return model.VotesFile{}, fmt.Errorf("%w: %w", ErrCorruptLedger, parseErr)
	}

	restored, err := os.ReadFile(s.path)
	if err != nil {
		return model.VotesFile{}, fmt.Errorf("read restored ledger: %w", err)
	}
	doc, err = s.decode(ctx, restored)
	if err != nil {
		// The restored backup passed json.Valid but not the schema; surface
		// the original corruption.
		return model.VotesFile{}, fmt.Errorf("%w: %w", ErrCorruptLedger, parseErr)
	}
	return doc, nil
}

// Save writes the document atomically and records a backup of the new
// content, throttled unless forceBackup is set.
func (s *LedgerFile) Save(ctx context.Context, doc model.VotesFile, forceBackup bool) error {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	doc.Version = model.VotesFileVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')

	if err := WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	metrics.UpdateTrackedContests(len(doc.Contests))

	if _, err := s.backups.Backup(ctx, s.prefix, s.path, forceBackup); err != nil {
		// The primary write succeeded; report the backup failure without
		// undoing it.
		return fmt.Errorf("backup after save: %w", err)
	}
	return nil
}

// BackupNow forces a backup of the current on-disk document, used before
// destructive operations.
func (s *LedgerFile) BackupNow(ctx context.Context) error {
	if _, err := s.backups.Backup(ctx, s.prefix, s.path, true); err != nil {
		return fmt.Errorf("forced backup: %w", err)
	}
	return nil
}

// decode parses and sanitizes the document. Invalid JSON is an error;
// recognizable documents with gaps are repaired with seeded defaults.
func (s *LedgerFile) decode(ctx context.Context, data []byte) (model.VotesFile, error) {
	var doc model.VotesFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.VotesFile{}, fmt.Errorf("parse ledger: %w", err)
	}
	if doc.Version > model.VotesFileVersion {
		// A future schema we cannot interpret. Start fresh rather than
		// guessing; the unreadable document stays available in backups.
		s.log.Warn(ctx, "ledger schema newer than supported, reseeding",
			logger.Int("version", doc.Version),
		)
		return model.NewVotesFile(), nil
	}
	if doc.Contests == nil {
		doc.Contests = make(map[string]model.ContestLedger)
	}
	for id, ledger := range doc.Contests {
		if ledger.State.Entries == nil {
			ledger.State.Entries = make(map[string]model.RatingEntry)
			doc.Contests[id] = ledger
		}
	}
	doc.Version = model.VotesFileVersion
	return doc, nil
}
