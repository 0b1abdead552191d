package insights

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the cache whenever a file the scan depends on changes.
// It blocks until ctx is cancelled. Directories that don't exist yet are not
// watched; the cache still expires through its TTL.
func (a *Analyzer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	dirs := map[string]bool{".": true}
	for _, name := range representativeFiles {
		dirs[filepath.Dir(filepath.FromSlash(name))] = true
	}
	for _, d := range componentDirs {
		dirs[filepath.FromSlash(d)] = true
	}
	watched := 0
	for d := range dirs {
		full := filepath.Join(a.root, d)
		if info, err := os.Stat(full); err != nil || !info.IsDir() {
			continue
		}
		if err := w.Add(full); err != nil {
			a.logger.Warn("cannot watch project directory", "dir", full, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no watchable directories under %s", a.root)
	}
	a.logger.Debug("watching project for changes", "root", a.root, "dirs", watched)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(a.root, ev.Name)
			if err != nil || !relevant(filepath.ToSlash(rel)) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("project file changed, clearing context cache", "file", rel, "op", ev.Op.String())
			a.ClearCache()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("project watcher error", "error", err)
		}
	}
}
