package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/logoduel/pkg/logger"
)

// Watch invalidates the roster cache whenever logos.json changes, so long
// running processes see roster edits without re-reading on every call.
// The directory is watched rather than the file itself because catalog
// writers replace the file by rename. Watching stops when ctx is done.
func (c *FileCatalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roster watcher: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Base(c.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				c.Invalidate()
				c.log.Debug(ctx, "roster cache invalidated",
					logger.String("event", event.Op.String()),
				)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warn(ctx, "roster watcher error", logger.Error(err))
			}
		}
	}()
	return nil
}
