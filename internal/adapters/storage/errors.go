package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNoBackup      = errors.New("no restorable backup")
	ErrCorruptLedger = errors.New("ledger file corrupt")
)
