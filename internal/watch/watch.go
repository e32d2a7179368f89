// Package watch drops cached project indexes when their logs change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/parser"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Invalidator is told which project changed
type Invalidator interface {
	InvalidateProject(projectID string)
}

// Watcher watches the projects root and every project directory below it.
type Watcher struct {
	root        string
	watcher     *fsnotify.Watcher
	invalidator Invalidator
	logger      *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
}

// New creates a watcher over root. Call Start to begin delivering events.
func New(root string, invalidator Invalidator, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		root:        root,
		watcher:     w,
		invalidator: invalidator,
		logger:      logging.OrNop(logger),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start adds the root and its project directories and processes events in
// the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addProject(filepath.Join(w.root, entry.Name()))
		}
	}

	w.started = true
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. It must not
// run concurrently with Start.
func (w *Watcher) Stop() {
	w.shutdown()
	if w.started {
		<-w.done
	}
}

func (w *Watcher) shutdown() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) addProject(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch project", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			w.shutdown()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	parent := filepath.Dir(event.Name)

	// a project directory appeared or went away under the root
	if parent == filepath.Clean(w.root) {
		projectID := filepath.Base(event.Name)
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				w.addProject(event.Name)
				w.invalidator.InvalidateProject(projectID)
			}
		}
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.invalidator.InvalidateProject(projectID)
		}
		return
	}

	if filepath.Dir(parent) != filepath.Clean(w.root) || filepath.Ext(event.Name) != parser.LogExt {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		projectID := filepath.Base(parent)
		w.logger.Debug("conversation log changed",
			zap.String("project", projectID),
			zap.String("file", filepath.Base(event.Name)),
			zap.String("op", event.Op.String()),
		)
		w.invalidator.InvalidateProject(projectID)
	}
}
