// Package daemon provides file system watching for the record
// directory, folding edits made by other processes back into the
// in-memory collection.
//
// The watcher:
// 1. Watches the record directory for *.json changes
// 2. Debounces bursts of events (one reload per burst)
// 3. Asks the cache to refresh itself from the local store
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader is the slice of the sync cache the watcher needs.
type Reloader interface {
	RefreshFromStore(ctx context.Context) error
}

// Config holds configuration for the watcher.
type Config struct {
	// DebounceInterval is how long to wait after the last event before
	// reloading. This batches rapid updates together.
	DebounceInterval time.Duration

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 200 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Watcher watches a record directory and triggers cache reloads.
type Watcher struct {
	dir      string
	reloader Reloader
	config   *Config

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	dirty   bool
	lastHit time.Time

	wg sync.WaitGroup
}

// New creates a watcher over dir. Use Run() to start watching.
func New(dir string, reloader Reloader, config *Config) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if reloader == nil {
		return nil, fmt.Errorf("reloader cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		reloader: reloader,
		config:   config,
		watcher:  fw,
	}, nil
}

// Run watches the directory until ctx is cancelled.
//
// Events for *.json files mark the watcher dirty; a ticker at the
// debounce interval folds dirty states into a single reload once the
// burst has settled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	defer w.watcher.Close()

	w.config.Logger.Printf("Watching %s", w.dir)

	w.wg.Add(1)
	go w.flushLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.config.Logger.Println("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			if !isRecordEvent(event) {
				continue
			}
			w.markDirty()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.config.Logger.Printf("Watch error: %v", err)
		}
	}
}

func (w *Watcher) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.lastHit = time.Now()
	w.mu.Unlock()
}

// flushLoop periodically turns a settled dirty state into one reload.
func (w *Watcher) flushLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			ready := w.dirty && time.Since(w.lastHit) >= w.config.DebounceInterval
			if ready {
				w.dirty = false
			}
			w.mu.Unlock()

			if !ready {
				continue
			}

			if err := w.reloader.RefreshFromStore(ctx); err != nil {
				w.config.Logger.Printf("Reload failed: %v", err)
				continue
			}
			w.config.Logger.Println("Reloaded records after external change")
		}
	}
}

// isRecordEvent reports whether the event concerns a record file we
// care about. Temp files from atomic writes are ignored; the rename
// that lands them shows up as a create on the final name.
func isRecordEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".tmp-") {
		return false
	}
	if !strings.HasSuffix(name, ".json") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
