// Package watch re-runs a scan when sources below the scanned roots change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"cxx-typegraph-neo4j/internal/scan"
)

// ChangeHandler is called with the changed source paths of one quiet period.
type ChangeHandler func(ctx context.Context, changed []string) error

// Watcher watches every directory below a set of roots.
type Watcher struct {
	watcher  *fsnotify.Watcher
	roots    []string
	filter   *scan.Filter
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher over the directory roots. Directories pruned by
// filter are not watched.
func New(roots []string, filter *scan.Filter, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		filter:   filter,
		debounce: debounce,
		logger:   logger,
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.roots = append(w.roots, abs)
		if err := w.addTree(abs, abs); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addTree(root, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(root, p); w.filter.SkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) rootOf(p string) (string, bool) {
	for _, root := range w.roots {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

// relevant reports whether ev touches a scanned source. New directories are
// added to the watch list as a side effect.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	root, ok := w.rootOf(ev.Name)
	if !ok {
		return false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.filter.SkipDir(rel) {
				if err := w.addTree(root, ev.Name); err != nil {
					w.logger.Warn("cannot watch new directory", "dir", ev.Name, "error", err)
				}
			}
			return false
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return w.filter.AcceptFile(rel)
}

// Run delivers changes to handle until ctx is done. Changes are collected
// until no new one arrives for the debounce period. handle runs on the
// calling goroutine, so invocations never overlap; its errors are logged.
func (w *Watcher) Run(ctx context.Context, handle ChangeHandler) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)

			w.logger.Info("Sources changed, rescanning", "files", len(changed))
			if err := handle(ctx, changed); err != nil {
				w.logger.Error("rescan failed", "error", err)
			}
		}
	}
}
