// Package storage provides crash-safe persistence for the vote ledger:
// atomic JSON writes, throttled point-in-time backups, and restore on
// corruption.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	filePerm = 0o600
	dirPerm  = 0o750
)

// WriteFileAtomic writes data so that a crash at any point leaves either
// the previous content or the new content on disk, never a partial file.
// The data is written to a temp file in the same directory, synced,
// renamed over the destination, and the containing directory is synced
// where the platform supports it.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s over %s: %w", tmpName, path, err)
	}

	syncDir(dir)
	return nil
}

// syncDir fsyncs a directory so the rename itself is durable. Best effort:
// some platforms reject fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
