package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events one atomic save produces
const DefaultDebounce = 100 * time.Millisecond

// Reloader is implemented by SessionStore and AgentRegistry
type Reloader interface {
	Reload() error
}

// Watch calls onChange(name) whenever another process rewrites a state file
// in the backend's directory. It watches the directory rather than the files
// because saves replace files by rename. Watch returns once the watcher is
// running; it stops when ctx is cancelled.
func Watch(ctx context.Context, backend *FileBackend, debounce time.Duration, logger *slog.Logger, onChange func(name string)) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(backend.Dir()); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", backend.Dir(), err)
	}

	go func() {
		defer watcher.Close()

		var mu sync.Mutex
		timers := make(map[string]*time.Timer)
		defer func() {
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, ok := stateName(event.Name)
				if !ok {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}

				// Debounce: cancel the pending timer and set a new one
				mu.Lock()
				if t, exists := timers[name]; exists {
					t.Stop()
				}
				timers[name] = time.AfterFunc(debounce, func() {
					if ctx.Err() != nil {
						return
					}
					logger.Debug("state file changed", "name", name)
					onChange(name)
				})
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("state watcher error", "error", err)
			}
		}
	}()

	return nil
}

// WatchStores reloads the given stores when their files change and then
// calls notify (which may be nil).
func WatchStores(ctx context.Context, backend *FileBackend, logger *slog.Logger, stores map[string]Reloader, notify func(name string)) error {
	if logger == nil {
		logger = slog.Default()
	}
	return Watch(ctx, backend, DefaultDebounce, logger, func(name string) {
		s, ok := stores[name]
		if !ok {
			return
		}
		if err := s.Reload(); err != nil {
			logger.Warn("failed to reload state", "name", name, "error", err)
		}
		if notify != nil {
			notify(name)
		}
	})
}

// stateName maps ".../mai-ai-auth.yaml" to "mai-ai-auth". Temp files
// written during a save are ignored.
func stateName(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".yaml") {
		return "", false
	}
	return strings.TrimSuffix(base, ".yaml"), true
}
