// Package watcher polls the modification times of directories the tree
// currently shows and triggers a subtree refresh when one changes.
package watcher

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/scto/Orbit-VFMS/internal/logging"
)

// Watcher periodically stats a set of directories and reports changes.
type Watcher struct {
	interval time.Duration
	dirs     func() []string   // directories to watch, queried each tick
	onChange func(path string) // invoked once per changed directory

	mu    sync.Mutex
	state map[string]int64 // path -> last seen mtime
	done  chan struct{}
	once  sync.Once
}

// New creates a watcher. dirs supplies the directories to poll on each
// tick (typically the engine's expanded set); onChange is called for every
// directory whose mtime moved since the previous tick.
func New(interval time.Duration, dirs func() []string, onChange func(string)) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		interval: interval,
		dirs:     dirs,
		onChange: onChange,
		state:    make(map[string]int64),
		done:     make(chan struct{}),
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.snapshot()
	go w.loop(ctx)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// snapshot records the current mtimes without reporting changes.
func (w *Watcher) snapshot() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range w.dirs() {
		if info, err := os.Stat(dir); err == nil {
			w.state[dir] = info.ModTime().UnixNano()
		}
	}
}

func (w *Watcher) check() {
	current := w.dirs()
	newState := make(map[string]int64, len(current))
	var changed []string

	w.mu.Lock()
	for _, dir := range current {
		info, err := os.Stat(dir)
		if err != nil {
			// Directory vanished; its parent's refresh will remove it.
			continue
		}
		mtime := info.ModTime().UnixNano()
		newState[dir] = mtime

		if old, seen := w.state[dir]; seen && old != mtime {
			changed = append(changed, dir)
		}
	}
	w.state = newState
	w.mu.Unlock()

	for _, dir := range changed {
		logging.Debug("directory changed", logging.String("path", dir))
		w.onChange(dir)
	}
}
