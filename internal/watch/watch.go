// Package watch re-runs a render whenever one of its inputs changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
)

const DefaultDebounce = 300 * time.Millisecond

// minTick bounds how often pending events are checked for very short debounces.
const minTick = time.Millisecond

// Watcher collects filesystem events under a set of paths and calls Run's callback
// once they have been quiet for Debounce.
type Watcher struct {
	Paths []string
	// Ignore lists files whose events never trigger a run, typically the
	// pipeline's own outputs.
	Ignore   []string
	Debounce time.Duration
	Log      *zap.Logger

	files   map[string]bool
	dirs    map[string]bool
	skip    map[string]bool
	watched map[string]bool
}

// ForConfig watches the résumé, the template, the partial directories and
// the stylesheet's directory, ignoring everything the render writes.
func ForConfig(cfg config.Config, log *zap.Logger) *Watcher {
	w := &Watcher{Debounce: DefaultDebounce, Log: log}
	w.Paths = append(w.Paths, cfg.Data.Path, cfg.Template.Path)
	for _, p := range cfg.Template.Partials {
		w.Paths = append(w.Paths, p.Dir)
	}
	if cfg.Style.Mode != config.StyleModeNone && cfg.Style.Path != "" {
		w.Paths = append(w.Paths, filepath.Dir(cfg.Style.Path))
	}
	w.Ignore = append(w.Ignore, cfg.Style.TempPath, cfg.Output.PDFPath, cfg.Output.HTMLPath)
	return w
}

// Run blocks until ctx is done. Errors from onChange are logged and do not
// stop the watch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string) error) error {
	log := logging.OrNop(w.Log)
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.add(fw); err != nil {
		return err
	}
	log.Info("watching for changes", zap.Strings("paths", w.Paths))

	pending := map[string]time.Time{}
	tick := time.NewTicker(max(debounce/4, minTick))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) && w.underDir(ev.Name) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(fw, clean(ev.Name), w.watched); err != nil {
						log.Warn("watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			log.Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case now := <-tick.C:
			if len(pending) == 0 {
				continue
			}
			settled := true
			for _, at := range pending {
				if now.Sub(at) < debounce {
					settled = false
					break
				}
			}
			if !settled {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			if err := onChange(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				log.Error("render after change failed", zap.Error(err))
			}
		}
	}
}

// add registers every watched path. Files are watched through their parent
// directory so editors that replace files on save are still seen.
func (w *Watcher) add(fw *fsnotify.Watcher) error {
	w.files = map[string]bool{}
	w.dirs = map[string]bool{}
	w.skip = map[string]bool{}
	w.watched = map[string]bool{}
	for _, p := range w.Ignore {
		if p != "" {
			w.skip[clean(p)] = true
		}
	}

	for _, p := range w.Paths {
		if p == "" {
			continue
		}
		p = clean(p)
		fi, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		if fi.IsDir() {
			if err := addTree(fw, p, w.watched); err != nil {
				return err
			}
			w.dirs[p] = true
			continue
		}
		w.files[p] = true
		dir := filepath.Dir(p)
		if !w.watched[dir] {
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			w.watched[dir] = true
		}
	}
	return nil
}

func addTree(fw *fsnotify.Watcher, root string, seen map[string]bool) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || seen[path] {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		seen[path] = true
		return nil
	})
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := clean(ev.Name)
	if w.skip[name] {
		return false
	}
	return w.files[name] || w.underDir(name)
}

func (w *Watcher) underDir(name string) bool {
	name = clean(name)
	for d := range w.dirs {
		if name == d || strings.HasPrefix(name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
