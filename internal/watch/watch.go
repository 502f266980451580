package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/pkg/types"
)

// DefaultDebounceWindow is how long a path must stay quiet before a
// re-index is triggered.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher drives a single folder's indexer.Index on every debounced
// batch of filesystem changes under that folder, for the supplemental
// "ragdex watch" CLI subcommand. It never starts implicitly from
// Index/Search -- spec.md's non-goals rule out a server process, not a
// single explicitly-started long-lived watch loop owned by the caller.
type Watcher struct {
	ix         *indexer.Indexer
	folderPath string
	opts       indexer.Options
	debounce   time.Duration
	logger     *slog.Logger
}

// New creates a Watcher for folderPath, driven by ix.
func New(ix *indexer.Indexer, folderPath string, opts indexer.Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{ix: ix, folderPath: folderPath, opts: opts, debounce: DefaultDebounceWindow, logger: logger}
}

// Run watches folderPath until ctx is cancelled, re-indexing on every
// debounced batch of changes. onStatus, if non-nil, is invoked after each
// triggered re-index.
func (w *Watcher) Run(ctx context.Context, onStatus func(types.Status)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.folderPath); err != nil {
		return err
	}

	debouncer := NewDebouncer(w.debounce)
	defer debouncer.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				debouncer.Add(ev.Name)
				if ev.Op&fsnotify.Create != 0 {
					if info, statErr := statIsDir(ev.Name); statErr == nil && info {
						_ = fsw.Add(ev.Name)
					}
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-debouncer.Output():
			if !ok {
				return nil
			}
			w.logger.Info("watch_triggered_reindex", slog.Int("changed", len(batch)))
			status, err := w.ix.Index(ctx, w.folderPath, w.opts)
			if err != nil {
				w.logger.Error("watch_reindex_failed", slog.String("error", err.Error()))
				continue
			}
			if onStatus != nil {
				onStatus(status)
			}
		}
	}
}
