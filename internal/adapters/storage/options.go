package storage

import (
	"time"

	"github.com/okian/logoduel/pkg/logger"
)

// BackupOption applies a configuration option to the BackupThrottler.
type BackupOption func(*BackupThrottler)

// WithMinInterval sets the minimum time between backups per prefix.
func WithMinInterval(interval time.Duration) BackupOption {
	return func(b *BackupThrottler) {
		if interval > 0 {
			b.minInterval = interval
		}
	}
}

// WithMaxRetained caps the number of backups kept per prefix.
func WithMaxRetained(n int) BackupOption {
	return func(b *BackupThrottler) {
		if n > 0 {
			b.maxRetained = n
		}
	}
}

// WithBackupClock overrides the time source, used by tests to exercise
// throttling without sleeping.
func WithBackupClock(now func() time.Time) BackupOption {
	return func(b *BackupThrottler) {
		if now != nil {
			b.now = now
		}
	}
}

// WithBackupLogger sets a custom logger for the throttler.
func WithBackupLogger(log logger.Logger) BackupOption {
	return func(b *BackupThrottler) {
		if log != nil {
			b.log = log
		}
	}
}

// LedgerOption applies a configuration option to the LedgerFile.
type LedgerOption func(*LedgerFile)

// WithLedgerLogger sets a custom logger for the ledger store.
func WithLedgerLogger(log logger.Logger) LedgerOption {
	return func(s *LedgerFile) {
		if log != nil {
			s.log = log
		}
	}
}
