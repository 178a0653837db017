// Package library keeps derived state in step with the upload directory.
package library

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"Playdeck/logger"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// InvalidateFunc is told that a file's contents may have changed.
type InvalidateFunc func(ctx context.Context, fileID string)

// Watcher reports changed files in a flat directory. Bursts of events for
// the same file are coalesced.
type Watcher struct {
	dir        string
	allowed    func(name string) bool
	invalidate InvalidateFunc
	debounce   time.Duration
	fsw        *fsnotify.Watcher
}

// NewWatcher starts watching dir. Only names accepted by allowed are
// reported.
func NewWatcher(dir string, allowed func(name string) bool, invalidate InvalidateFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:        dir,
		allowed:    allowed,
		invalidate: invalidate,
		debounce:   DefaultDebounce,
		fsw:        fsw,
	}, nil
}

// SetDebounce changes the quiet period. It must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	logger.Info("watching upload directory", logger.String("dir", w.dir))
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.allowed(name) {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			for name := range pending {
				logger.Debug("file changed", logger.String("file", name))
				w.invalidate(ctx, name)
			}
			clear(pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", logger.String("dir", w.dir), logger.ErrorField(err))

		case <-ctx.Done():
			return
		}
	}
}
