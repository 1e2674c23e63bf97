// Package watch re-runs a callback whenever a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before the callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func() error
	onError  func(error)
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for file. Callback errors and watcher errors are
// passed to onError, which may be nil.
func NewWatcher(file string, callback func() error, onError func(error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Watch the directory so editors that replace the file are seen too
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{
		file:     absPath,
		callback: callback,
		onError:  onError,
		debounce: DefaultDebounce,
		watcher:  watcher,
	}, nil
}

// SetDebounce changes the debounce period. It must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run calls the callback once, then again after every change, until ctx is
// done. The first callback error is returned; later ones go to onError.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == w.file {
				debounceTimer.Reset(w.debounce)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-ctx.Done():
			return nil
		}
	}
}
