package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a callback whenever content under the watched paths changes.
// Directories are watched recursively, including subdirectories created later; for
// files the parent directory is watched and only events for that file count.
// Bursts of events are coalesced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onChange func()

	roots []string        // watched directory trees whose every event counts
	files map[string]bool // individual files of interest
	added map[string]bool // directories registered with fsnotify
}

// New creates a watcher over paths. Paths that do not exist yet are skipped with a warning.
func New(paths []string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]bool),
		added:    make(map[string]bool),
	}

	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("Not watching missing path", "path", p, "error", err)
			continue
		}

		if info.IsDir() {
			w.roots = append(w.roots, p)
			err = w.addTree(p)
		} else {
			w.files[p] = true
			err = w.addDir(filepath.Dir(p))
		}
		if err != nil {
			fw.Close()
			return nil, err
		}
	}

	return w, nil
}

// addTree registers dir and every directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.addDir(path)
	})
}

func (w *Watcher) addDir(dir string) error {
	if w.added[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.added[dir] = true
	w.logger.Debug("Watching", "path", dir)
	return nil
}

// Run blocks until ctx is cancelled, then closes the underlying watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Content changed", "path", event.Name, "op", event.Op.String())
			if event.Op.Has(fsnotify.Create) {
				w.watchCreatedDir(event.Name)
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			w.onChange()
		}
	}
}

// watchCreatedDir picks up a directory created under a watched tree
func (w *Watcher) watchCreatedDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || !w.underRoot(filepath.Clean(path)) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return w.files[name] || w.underRoot(name)
}

func (w *Watcher) underRoot(name string) bool {
	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, name); err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
