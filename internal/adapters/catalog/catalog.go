// Package catalog adapts the external logo-catalog and contest-registry
// collaborators. The vote ledger consumes them through the Roster and
// Registry interfaces only.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// Roster supplies the active logo ids for the current contest roster.
type Roster interface {
	ActiveIDs(ctx context.Context) ([]string, error)
}

// Registry resolves a contest identifier to its canonical id. An empty
// identifier resolves to the default active contest.
type Registry interface {
	Resolve(ctx context.Context, contestID string) (string, error)
}

// Logo mirrors the catalog collaborator's logos.json entries. Only the
// fields the ledger needs are decoded.
type Logo struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Removed  bool   `json:"removed,omitempty"`
}

// logosFile is the wrapped document shape; a bare array is also accepted.
type logosFile struct {
	Logos []Logo `json:"logos"`
}

// FileCatalog implements Roster on top of logos.json with an invalidating
// cache. Watch keeps the cache fresh when the catalog collaborator
// rewrites the file.
type FileCatalog struct {
	path string

	mu     sync.RWMutex
	cached []string
	valid  bool

	log logger.Logger
}

// NewFileCatalog creates a catalog backed by the logos.json at path.
func NewFileCatalog(path string, opts ...CatalogOption) *FileCatalog {
	c := &FileCatalog{
		path: path,
		log:  logger.Get().Named("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ActiveIDs returns the non-removed logo ids in file order.
func (c *FileCatalog) ActiveIDs(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.valid {
		ids := make([]string, len(c.cached))
		copy(ids, c.cached)
		c.mu.RUnlock()
		return ids, nil
	}
	c.mu.RUnlock()

	logos, err := c.load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(logos))
	for _, logo := range logos {
		if logo.ID == "" || logo.Removed {
			continue
		}
		ids = append(ids, logo.ID)
	}

	c.mu.Lock()
	c.cached = ids
	c.valid = true
	c.mu.Unlock()

	metrics.UpdateTrackedLogos(len(ids))
	c.log.Debug(ctx, "roster loaded", logger.Int("active", len(ids)))

	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// Invalidate drops the cached roster; the next ActiveIDs call re-reads
// the file.
func (c *FileCatalog) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// load reads logos.json, accepting both the wrapped document and a bare
// array.
func (c *FileCatalog) load() ([]Logo, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoCatalog, c.path)
		}
		return nil, fmt.Errorf("read logo catalog: %w", err)
	}

	var wrapped logosFile
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Logos != nil {
		return wrapped.Logos, nil
	}
	var bare []Logo
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("parse logo catalog %s: %w", c.path, ErrBadCatalog)
}

// StaticRegistry implements Registry over a fixed contest set. The ledger
// treats the real registry as an external collaborator; this adapter
// serves the CLIs and tests.
type StaticRegistry struct {
	defaultID string
	known     map[string]struct{}
}

// NewStaticRegistry creates a registry with a default contest and an
// optional closed set of known contests. With no known set, any non-empty
// id resolves to itself.
func NewStaticRegistry(defaultID string, known ...string) *StaticRegistry {
	r := &StaticRegistry{defaultID: defaultID}
	if len(known) > 0 {
		r.known = make(map[string]struct{}, len(known)+1)
		r.known[defaultID] = struct{}{}
		for _, id := range known {
			r.known[id] = struct{}{}
		}
	}
	return r
}

// Resolve implements Registry.
func (r *StaticRegistry) Resolve(_ context.Context, contestID string) (string, error) {
	if contestID == "" {
		if r.defaultID == "" {
			return "", ErrNoActiveContest
		}
		return r.defaultID, nil
	}
	if r.known != nil {
		if _, ok := r.known[contestID]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownContest, contestID)
		}
	}
	return contestID, nil
}
