// Package watch re-runs the migration for source posts that change after the
// initial batch.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/postmigrate/internal/checksum"
)

// Matcher selects which paths are sources and which directories to ignore.
type Matcher interface {
	Match(path string) bool
	SkipDir(dir string) bool
}

// Handler is called with a source path whose content changed.
type Handler func(path string)

// debounce collapses the burst of write events editors produce on save.
const debounce = 150 * time.Millisecond

// Watch starts an fsnotify watcher on root and its subdirectories and calls
// fn for every matching source that is created or whose content changes,
// until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and any
// sources already inside them are handed to fn. Removing a source leaves its
// output in place.
func Watch(ctx context.Context, root string, m Matcher, logger *slog.Logger, fn Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, m); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	seen := checksum.NewTracker()
	pending := make(map[string]struct{})

	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func(path string) {
		pending[path] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	flush := func() {
		for path := range pending {
			delete(pending, path)
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", readErr.Error()))
				continue
			}
			if !seen.Changed(path, data) {
				logger.Debug("watcher: content unchanged", slog.String("path", path))
				continue
			}
			fn(path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			path := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if m.SkipDir(path) {
						continue
					}
					if addErr := addDirsRecursive(w, path, m); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
					for _, p := range sourcesIn(path, m) {
						schedule(p)
					}
					continue
				}
			}

			if !m.Match(path) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule(path)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				seen.Forget(path)
				delete(pending, path)
				logger.Info("watcher: source gone, output kept", slog.String("path", path))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// sourcesIn returns matching files already present under dir.
func sourcesIn(dir string, m Matcher) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if m.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.Match(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping excluded trees.
func addDirsRecursive(w *fsnotify.Watcher, root string, m Matcher) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if m.SkipDir(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
