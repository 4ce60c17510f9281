// Package watch observes descriptor files and the web root in development
// mode and reports changes so the model can be invalidated and browsers
// reloaded.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/bundlego/internal/ctxlog"
)

// debounceWindow coalesces the burst of events an editor save produces.
const debounceWindow = 200 * time.Millisecond

// Watcher wraps fsnotify over a set of directory trees and invokes a
// callback, debounced, for every relevant change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path string)
}

// New creates a watcher delivering change notifications to onChange.
func New(onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, onChange: onChange}, nil
}

// Add registers a path and, for directories, the whole tree below it.
// Directories created later inside a watched tree are picked up as their
// create events arrive.
func (w *Watcher) Add(paths ...string) error {
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.fsw.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Run delivers events until the context is cancelled. It must be called at
// most once, typically in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	var pending string

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-timerC:
			timerC = nil
			if pending != "" {
				w.onChange(pending)
				pending = ""
			}
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Filesystem event.", "op", event.Op.String(), "path", event.Name)
			// New directories join the watch so nested changes keep arriving.
			if event.Has(fsnotify.Create) {
				_ = w.Add(event.Name)
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error.", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
