// Package watch triggers sync runs when source notes or attachments change.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNothingToWatch is returned when none of the directories can be watched.
var ErrNothingToWatch = errors.New("watch: no watchable directories")

// Watch starts an fsnotify watcher on each directory (not recursively) and
// calls fn once the directories have been quiet for debounce after a change.
// Hidden files are ignored. Directories that cannot be watched are logged
// and skipped. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, logger *slog.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			logger.Warn("watcher: cannot watch directory", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		return ErrNothingToWatch
	}

	logger.Info("watcher: started", slog.Int("dirs", watched), slog.Duration("debounce", debounce))

	// timer is armed on the first relevant event and re-armed on each
	// following one until the directories go quiet.
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			logger.Debug("watcher: change settled, syncing")
			fn()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
