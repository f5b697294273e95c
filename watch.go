package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reports changes below a set of directories. Events are coalesced:
// Wait returns once no further change arrived for the debounce interval.
type Watcher struct {
	fw       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher watches every directory below each root, and each root that
// is a plain file. Roots that do not exist are skipped.
func NewWatcher(logger *slog.Logger, debounce time.Duration, roots ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("folio: fsnotify: %w", err)
	}
	w := &Watcher{fw: fw, logger: logger, debounce: debounce}
	for _, root := range roots {
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("folio: watch %s: %w", root, err)
		}
		if !info.IsDir() {
			if err := fw.Add(root); err != nil {
				fw.Close()
				return nil, fmt.Errorf("folio: watch %s: %w", root, err)
			}
			continue
		}
		w.addDirsRecursive(root)
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Wait blocks until a relevant change was observed and the tree has been
// quiet for the debounce interval. It returns ctx.Err() on cancellation.
func (w *Watcher) Wait(ctx context.Context) error {
	var quiet <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return errors.New("folio: watcher closed")
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.addDirsRecursive(ev.Name)
				}
			}
			w.logger.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())
			quiet = time.After(w.debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("folio: watcher closed")
			}
			w.logger.Warn("watcher error", "error", err)
		case <-quiet:
			return nil
		}
	}
}

func (w *Watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.fw.Add(path); err != nil {
				w.logger.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent skips hidden files, editor swap files and backups.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}

// Watch runs a build pass, waits for the next change below the input and
// static directories, and repeats until ctx is cancelled. Failed passes are
// logged; the loop keeps waiting for a fix.
func (a *App) Watch(ctx context.Context) error {
	w, err := NewWatcher(a.logger, defaultDebounce, a.Config.InputDir, a.Config.StaticDir)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		if _, err := a.Build(ctx, false); err != nil {
			a.logger.Error("build failed", "error", err)
		}
		a.logger.Info("waiting for changes", "input", a.Config.InputDir)
		if err := w.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
