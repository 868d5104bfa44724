// Package dedupe tracks seen vote keys for exactly-once accounting during
// merge and replay.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen keys so each vote is counted at most once.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it
	// if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of distinct keys recorded.
	Size() int64
}

// setDeduper implements Deduper with a plain map. Merge inputs and audit
// streams are bounded by their on-disk size, so no eviction is needed.
type setDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSetDeduper creates an in-memory deduper with configuration options.
func NewSetDeduper(opts ...Option) Deduper {
	cfg := settings{}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &setDeduper{}
	if cfg.initialCapacity > 0 {
		d.seen = make(map[string]struct{}, cfg.initialCapacity)
	} else {
		d.seen = make(map[string]struct{})
	}
	return d
}

// SeenAndRecord atomically checks and records key.
func (d *setDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Size returns the number of distinct keys recorded.
func (d *setDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
