// Package watch triggers rebuilds when files in the source tree change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vos/internal/logfields"
)

// ChangeFunc receives the sorted, de-duplicated paths (relative to the
// watched root) that changed during one debounce window.
type ChangeFunc func(ctx context.Context, paths []string)

// Options configures Watch.
type Options struct {
	// Debounce is how long the tree must stay quiet before fn runs.
	Debounce time.Duration
	// Skip lists directories (relative to root) whose events are ignored,
	// typically the build output.
	Skip []string
}

// Watch starts an fsnotify watcher on root and every directory beneath it
// and calls fn after each burst of changes until ctx is cancelled. Hidden
// directories and skipped directories are not watched. New directories
// created at runtime are added to the watch list.
func Watch(ctx context.Context, root string, opts Options, logger *slog.Logger, fn ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	skip := make(map[string]struct{}, len(opts.Skip))
	for _, s := range opts.Skip {
		skip[filepath.Clean(filepath.Join(root, filepath.FromSlash(s)))] = struct{}{}
	}
	if err := addDirsRecursive(w, root, skip); err != nil {
		return err
	}

	logger.Info("watcher: started", logfields.Path(root))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			logger.Debug("watcher: changes settled", logfields.Count(len(paths)))
			fn(ctx, paths)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if skipped(ev.Name, skip) || ignoredName(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, skip); addErr != nil {
						logger.Warn("watcher: add new dir failed", logfields.Path(ev.Name), logfields.Error(addErr))
					}
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", logfields.Error(watchErr))
		}
	}
}

// ignoredName filters editor swap and backup files.
func ignoredName(name string) bool {
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasPrefix(name, ".#")
}

func skipped(path string, skip map[string]struct{}) bool {
	for dir := range skip {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// leaving out hidden and skipped directories.
func addDirsRecursive(w *fsnotify.Watcher, root string, skip map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, ok := skip[filepath.Clean(path)]; ok {
			return filepath.SkipDir
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
