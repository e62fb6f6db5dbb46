package component

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher reloads a registry whenever a definition file in its directory
// changes.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	onReload func(error)
	done     chan struct{}
}

// Watch starts watching the registry directory. onReload runs after every
// reload with its outcome and may be nil. Only the top-level directory is
// watched.
func (r *Registry) Watch(onReload func(error)) (*Watcher, error) {
	if r.fs == nil {
		return nil, fmt.Errorf("registry was not loaded from a directory")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir, err := filepath.Abs(r.dir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	w := &Watcher{registry: r, watcher: fw, onReload: onReload, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	var debounce <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, FileSuffix) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(reloadDebounce)
				debounce = timer.C
			}

		case <-debounce:
			debounce = nil
			err := w.registry.Reload()
			if err != nil {
				w.registry.log.Error("component reload failed", "error", err)
			}
			if w.onReload != nil {
				w.onReload(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.registry.log.Error("watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
