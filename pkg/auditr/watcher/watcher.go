// Package watcher reports bursts of filesystem activity below an audited
// root. Events are collected until the tree has been quiet for the debounce
// interval and then delivered as one batch of root-relative paths.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 2 * time.Second

var logger = logging.Get("watcher")

// Watcher watches every non-excluded directory below a root.
type Watcher struct {
	root     string
	filter   filter.PathFilter
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	dirs   map[string]bool
	closed bool
}

// New creates a watcher for root. A nil filter means filter.Default().
func New(root string, f filter.PathFilter, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if f == nil {
		f = filter.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:     abs,
		filter:   f,
		debounce: debounce,
		fsw:      fsw,
		dirs:     make(map[string]bool),
	}, nil
}

// Start registers watches on the root and its included subdirectories.
func (w *Watcher) Start() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", w.root)
	}
	return w.addTree(w.root)
}

// Dirs returns the number of watched directories.
func (w *Watcher) Dirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

func (w *Watcher) addTree(top string) error {
	return filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == top {
				return err
			}
			logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && !w.filter.Matches(rel) {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.dirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Run delivers batches to onSettle until ctx is cancelled. Each batch holds
// the sorted, de-duplicated relative paths touched since the last one.
func (w *Watcher) Run(ctx context.Context, onSettle func(paths []string)) error {
	pending := make(map[string]struct{})
	// fire stays nil, and so never ready, until an event arms the timer.
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.handle(ev)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)

		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			slices.Sort(batch)
			logger.Debug("changes settled", "paths", len(batch))
			onSettle(batch)
		}
	}
}

// handle registers new directories and reports whether the event concerns an
// included path.
func (w *Watcher) handle(ev fsnotify.Event) (string, bool) {
	rel, ok := w.rel(ev.Name)
	if !ok || rel == "." || !w.filter.Matches(rel) {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				logger.Warn("failed to watch new directory", "path", rel, "error", err)
			}
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.dirs, ev.Name)
		w.mu.Unlock()
	}
	return rel, true
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
