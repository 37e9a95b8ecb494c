package ingress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// BatchFunc receives the files that settled in a drop folder.
type BatchFunc func(ctx context.Context, files []models.Candidate) error

// DropWatcher turns files written into a directory into upload batches.
// Events are debounced so a multi-file copy arrives as one batch, and each
// file version (path, size, modification time) is offered only once.
type DropWatcher struct {
	dir      string
	debounce time.Duration
	onBatch  BatchFunc
	logger   *logging.Logger

	pending map[string]struct{}
	seen    map[string]fileStamp
	mu      sync.Mutex
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// NewDropWatcher creates a watcher for dir. A zero debounce uses the default.
func NewDropWatcher(dir string, debounce time.Duration, onBatch BatchFunc, logger *logging.Logger) *DropWatcher {
	if debounce <= 0 {
		debounce = constants.DropDebounce
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DropWatcher{
		dir:      dir,
		debounce: debounce,
		onBatch:  onBatch,
		logger:   logger,
		pending:  make(map[string]struct{}),
		seen:     make(map[string]fileStamp),
	}
}

// Run watches until ctx is cancelled. Files already in the directory are
// offered as the first batch.
func (w *DropWatcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("failed to stat drop folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("drop folder %s is not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Info().Str("dir", w.dir).Msg("Watching drop folder")

	if err := w.scanExisting(); err != nil {
		return err
	}
	w.flush(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.track(event.Name) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Drop folder watcher error")

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

func (w *DropWatcher) scanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read drop folder: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			w.track(filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

// track queues a path for the next batch. Hidden files are ignored.
func (w *DropWatcher) track(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	return true
}

// flush hands pending files that changed since they were last offered to
// the batch callback.
func (w *DropWatcher) flush(ctx context.Context) {
	batch := w.takeBatch()
	if len(batch) == 0 {
		return
	}

	w.logger.Debug().Int("files", len(batch)).Msg("Drop folder batch ready")
	if err := w.onBatch(ctx, batch); err != nil {
		w.logger.Warn().Err(err).Msg("Drop folder batch failed")
	}
}

func (w *DropWatcher) takeBatch() []models.Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(paths)

	var batch []models.Candidate
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := w.seen[p]; ok && prev.size == stamp.size && prev.modTime.Equal(stamp.modTime) {
			continue
		}

		c, err := LocalCandidate(p)
		if err != nil {
			w.logger.Debug().Err(err).Str("path", p).Msg("Skipping drop folder entry")
			continue
		}
		w.seen[p] = stamp
		batch = append(batch, c)
	}
	return batch
}
