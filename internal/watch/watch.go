// Package watch turns file-system writes inside a workspace into revision requests.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	lhfs "lh-go/internal/fs"
	"lh-go/internal/lh"
)

// minTick bounds how often pending saves are checked.
const minTick = 10 * time.Millisecond

// Watcher watches a workspace tree and reports files whose writes have settled.
type Watcher struct {
	root     string
	ignore   *lhfs.IgnoreMatcher
	debounce time.Duration
	logger   lh.Logger
	fsw      *fsnotify.Watcher

	pending map[string]time.Time
}

// New creates a Watcher over every non-ignored directory below root.
func New(root string, ignore *lhfs.IgnoreMatcher, debounce time.Duration, logger lh.Logger) (*Watcher, error) {
	if ignore == nil {
		ignore = lhfs.NewIgnoreMatcher(nil)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
	}
	if err := w.addTree(w.root, false); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers settled writes to onSave until ctx is done, then closes the watcher.
// onSave is only ever called from the goroutine running Run.
func (w *Watcher) Run(ctx context.Context, onSave func(path string)) error {
	defer w.fsw.Close()

	tick := w.debounce / 2
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, time.Now())
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				onSave(path)
			}
		}
	}
}

// handleEvent schedules regular files that were created or written and starts
// watching new directories.
func (w *Watcher) handleEvent(ev fsnotify.Event, now time.Time) {
	if w.ignored(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			// Files may land in the directory before its watch is registered.
			if err := w.addTree(ev.Name, true); err != nil {
				w.logger.Warn("watching new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}
	if info.Mode().IsRegular() {
		w.schedule(ev.Name, now)
	}
}

func (w *Watcher) schedule(path string, now time.Time) {
	w.pending[path] = now.Add(w.debounce)
}

// due removes and returns the pending paths whose quiet period has passed.
func (w *Watcher) due(now time.Time) []string {
	var paths []string
	for path, deadline := range w.pending {
		if !now.Before(deadline) {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	return paths
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	return w.ignore.Match(rel)
}

// addTree watches dir and its non-ignored subdirectories. With scheduleFiles set,
// regular files already present are scheduled too.
func (w *Watcher) addTree(dir string, scheduleFiles bool) error {
	now := time.Now()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.root && w.ignored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			w.logger.Debug("watching directory", "path", path)
			return nil
		}
		if scheduleFiles && d.Type().IsRegular() {
			w.schedule(path, now)
		}
		return nil
	})
}
