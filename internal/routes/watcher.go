package routes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long the routes file must stay unchanged before it is reloaded.
const DefaultSettleDelay = 250 * time.Millisecond

// Watcher reloads a routes file into a Registry whenever it changes.
// It watches the file's directory so editors that replace files on save are seen.
type Watcher struct {
	path     string
	base     map[string]string
	registry *Registry
	logger   *slog.Logger
	settle   time.Duration
	onReload func(count int, err error)

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	size    int64
	modTime time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOptions tunes a Watcher.
type WatcherOptions struct {
	SettleDelay time.Duration
	// OnReload is called after every reload attempt. Optional.
	OnReload func(count int, err error)
}

// NewWatcher creates a watcher for path. base holds the routes present
// regardless of the file's contents.
func NewWatcher(path string, base map[string]string, registry *Registry, logger *slog.Logger, opts WatcherOptions) (*Watcher, error) {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     path,
		base:     base,
		registry: registry,
		logger:   logger,
		settle:   opts.SettleDelay,
		onReload: opts.OnReload,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Reload reads the file now and replaces the registry contents.
// On error the registry keeps its previous routes.
func (w *Watcher) Reload() error {
	fileRoutes, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("routes reload failed, keeping previous routes", "path", w.path, "error", err)
		if w.onReload != nil {
			w.onReload(w.registry.Len(), err)
		}
		return err
	}

	merged := Merge(w.base, fileRoutes)
	w.registry.Replace(merged)
	w.logger.Info("routes reloaded", "path", w.path, "count", len(merged))
	if w.onReload != nil {
		w.onReload(len(merged), nil)
	}
	return nil
}

// Start processes file events until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.processEvents(ctx)
}

// Stop ends event processing and releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.startSettling()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("routes watcher error", "error", err)
		}
	}
}

// startSettling (re)arms the settle timer with the file's current size and mtime.
func (w *Watcher) startSettling() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	info, err := os.Stat(w.path)
	if err != nil {
		// Renamed away mid-save; the following Create event re-arms.
		return
	}
	w.size, w.modTime = info.Size(), info.ModTime()
	w.timer = time.AfterFunc(w.settle, w.checkSettled)
}

// checkSettled reloads once the file stopped changing, or waits another round.
func (w *Watcher) checkSettled() {
	w.mu.Lock()
	info, err := os.Stat(w.path)
	if err == nil && (info.Size() != w.size || !info.ModTime().Equal(w.modTime)) {
		w.size, w.modTime = info.Size(), info.ModTime()
		w.timer = time.AfterFunc(w.settle, w.checkSettled)
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if err != nil {
		w.logger.Warn("routes file disappeared, keeping previous routes", "path", w.path)
		return
	}
	_ = w.Reload()
}
