// Package watch re-runs a callback whenever source files under a project
// root change. It backs the CLI's --watch mode.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is the quiet period after the last event before the callback
// fires. Editors tend to emit bursts of writes for one save.
const Debounce = 300 * time.Millisecond

// watchedExtensions are the source file types that trigger a re-run.
var watchedExtensions = map[string]bool{
	".tex":  true,
	".bib":  true,
	".cls":  true,
	".bst":  true,
	".yaml": true,
}

// Run watches root recursively and invokes fn after each debounced burst of
// relevant changes. Paths under any ignore directory are not watched; the
// caller passes its own output directory here so a rebuild writing into the
// tree does not trigger the next rebuild. Run blocks until ctx is cancelled.
func Run(ctx context.Context, root string, ignore []string, log *slog.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addTree(w, root, ignore); err != nil {
		return err
	}
	log.Info("watching for changes", "root", root)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if underAny(ev.Name, ignore) {
				continue
			}
			// New directories must be added while they are still empty,
			// before files land in them.
			if ev.Op.Has(fsnotify.Create) {
				if err := addTree(w, ev.Name, ignore); err == nil {
					log.Debug("watching new directory", "path", ev.Name)
				}
			}
			if !relevant(ev) {
				continue
			}
			log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(Debounce)
				fire = timer.C
			} else {
				timer.Reset(Debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-fire:
			timer = nil
			fire = nil
			fn()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") && base != ".flattex.yaml" {
		return false
	}
	return watchedExtensions[strings.ToLower(filepath.Ext(base))] || base == ".flattex.yaml"
}

// addTree registers path and every directory below it, skipping ignored
// subtrees. A path that is not a directory is not an error.
func addTree(w *fsnotify.Watcher, path string, ignore []string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if underAny(p, ignore) {
			return filepath.SkipDir
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// underAny reports whether path equals or lies under any of the given
// directories.
func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
