// Package watch re-runs a command when its input files change.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jacerider/neo-alchemist/internal/debug"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls back when a watched file, or any file below a watched
// directory, is written, created, removed or renamed.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	callback func() error
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	log      *slog.Logger
}

// New watches paths, which may be files or directories.
func New(paths []string, callback func() error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		files:    map[string]bool{},
		callback: callback,
		debounce: DefaultDebounce,
		watcher:  fw,
		done:     make(chan struct{}),
		log:      debug.Component("watch"),
	}
	added := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		dir := filepath.Dir(abs)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dir = abs
			w.dirs = append(w.dirs, abs)
		} else {
			w.files[abs] = true
		}
		if added[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
		added[dir] = true
	}
	return w, nil
}

// WithDebounce sets the settle delay.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if w.files[path] {
		return true
	}
	for _, dir := range w.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Start runs the callback once and then again after every change.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go func() {
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		var settled <-chan time.Time

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.relevant(event) {
					w.log.Debug("change", "path", event.Name, "op", event.Op.String())
					timer.Reset(w.debounce)
					settled = timer.C
				}

			case <-settled:
				if err := w.callback(); err != nil {
					fmt.Fprintf(os.Stderr, "Watch callback error: %v\n", err)
				}
				settled = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
