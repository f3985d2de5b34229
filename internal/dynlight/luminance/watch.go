package luminance

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads t whenever the file at path is written or replaced. It
// blocks until ctx is cancelled. A file that fails to parse is logged and
// the previous contents are kept.
func Watch(ctx context.Context, path string, t *Table, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	log.Debug("watching luminance table", "path", path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			if err := t.Reload(path); err != nil {
				log.Warn("luminance table reload failed", "path", path, "error", err)
				continue
			}
			log.Info("reloaded luminance table", "path", path, "items", t.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("luminance table watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
