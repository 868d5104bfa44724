package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// Default backup configuration constants.
const (
	DefaultMinInterval = 60 * time.Second
	DefaultMaxRetained = 120
	backupExt          = ".json"
)

// BackupThrottler copies ledger files into backups/<prefix>/ with
// rate-limiting and retention. It is constructed once per process and
// passed by reference to writers; throttle state lives here, not in a
// package-level map, so tests and multiple stores do not leak into each
// other. The state is still process-local: two processes sharing a data
// directory will each keep their own throttle clock.
type BackupThrottler struct {
	root        string
	minInterval time.Duration
	maxRetained int
	now         func() time.Time

	mu   sync.Mutex
	last map[string]time.Time

	log logger.Logger
}

// NewBackupThrottler creates a throttler rooted at dir (the backups/
// directory) with configuration options.
func NewBackupThrottler(dir string, opts ...BackupOption) *BackupThrottler {
	b := &BackupThrottler{
		root:        dir,
		minInterval: DefaultMinInterval,
		maxRetained: DefaultMaxRetained,
		now:         time.Now,
		last:        make(map[string]time.Time),
		log:         logger.Get().Named("backup"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Backup copies source into the prefix directory unless a backup for that
// prefix happened within the minimum interval. force bypasses throttling.
// Returns true when a backup file was written.
func (b *BackupThrottler) Backup(ctx context.Context, prefix, source string, force bool) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !force {
		if last, ok := b.last[prefix]; ok && now.Sub(last) < b.minInterval {
			metrics.RecordBackupSkipped()
			return false, nil
		}
	}

	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to back up yet.
			return false, nil
		}
		return false, fmt.Errorf("read backup source: %w", err)
	}

	dir := filepath.Join(b.root, prefix)
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString() + backupExt
	if err := WriteFileAtomic(filepath.Join(dir, name), data); err != nil {
		return false, fmt.Errorf("write backup: %w", err)
	}

	b.last[prefix] = now
	metrics.RecordBackupCreated()
	b.log.Debug(ctx, "backup written",
		logger.String("prefix", prefix),
		logger.String("file", name),
	)

	if err := b.prune(ctx, prefix); err != nil {
		// Retention failure should not fail the write that triggered it.
		b.log.Warn(ctx, "backup retention failed", logger.String("prefix", prefix), logger.Error(err))
	}
	return true, nil
}

// RestoreLatest copies the newest readable backup for prefix over
// destination. Backups are tried newest-first; unreadable or invalid ones
// are skipped. Returns ErrNoBackup when none restores successfully.
func (b *BackupThrottler) RestoreLatest(ctx context.Context, prefix, destination string) error {
	backups, err := b.list(prefix)
	if err != nil {
		return err
	}

	for i := len(backups) - 1; i >= 0; i-- {
		candidate := backups[i]
		data, err := os.ReadFile(filepath.Join(b.root, prefix, candidate.name))
		if err != nil || !json.Valid(data) {
			b.log.Warn(ctx, "skipping unreadable backup",
				logger.String("prefix", prefix),
				logger.String("file", candidate.name),
			)
			continue
		}
		if err := WriteFileAtomic(destination, data); err != nil {
			return fmt.Errorf("restore backup %s: %w", candidate.name, err)
		}
		metrics.RecordBackupRestored()
		b.log.Info(ctx, "restored from backup",
			logger.String("prefix", prefix),
			logger.String("file", candidate.name),
		)
		return nil
	}
	return ErrNoBackup
}

// backupFile pairs a backup filename with the timestamp embedded in it.
type backupFile struct {
	name   string
	millis int64
}

// list returns the prefix's backups sorted oldest-first by embedded
// timestamp. Files without a parsable timestamp prefix are ignored.
func (b *BackupThrottler) list(prefix string) ([]backupFile, error) {
	entries, err := os.ReadDir(filepath.Join(b.root, prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := make([]backupFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}
		head, _, ok := strings.Cut(entry.Name(), "-")
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(head, 10, 64)
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{name: entry.Name(), millis: millis})
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].millis != backups[j].millis {
			return backups[i].millis < backups[j].millis
		}
		return backups[i].name < backups[j].name
	})
	return backups, nil
}

// prune removes the oldest backups beyond the retention cap.
func (b *BackupThrottler) prune(ctx context.Context, prefix string) error {
	backups, err := b.list(prefix)
	if err != nil {
		return err
	}
	excess := len(backups) - b.maxRetained
	if excess <= 0 {
		return nil
	}
	for _, old := range backups[:excess] {
		if err := os.Remove(filepath.Join(b.root, prefix, old.name)); err != nil {
			return fmt.Errorf("remove old backup %s: %w", old.name, err)
		}
	}
	metrics.RecordBackupPruned(excess)
	b.log.Debug(ctx, "pruned old backups",
		logger.String("prefix", prefix),
		logger.Int("removed", excess),
	)
	return nil
}
