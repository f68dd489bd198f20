package source

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event signals that the rule source changed and should be reloaded.
type Event struct {
	// Path is the file path that changed, if known.
	Path string
}

// Watcher watches a rule file or directory for changes and emits a
// debounced Event per burst of filesystem activity. Editors commonly
// produce several write events per save; the debounce window collapses
// them into one reload.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the given rule path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		debounce: 500 * time.Millisecond,
		logger:   logger.With("component", "rules.source.watcher"),
	}
}

// Watch starts watching and returns the event channel. The channel is
// closed when the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the parent directory so atomic-rename saves are seen.
	watchPath := w.path
	if filepath.Ext(watchPath) != "" {
		watchPath = filepath.Dir(watchPath)
	}
	if err := fsw.Add(watchPath); err != nil {
		fsw.Close()
		return nil, err
	}

	events := make(chan Event, 1)

	go func() {
		defer close(events)
		defer fsw.Close()

		var (
			timer   *time.Timer
			timerCh <-chan time.Time
			pending string
		)

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !relevantOp(ev.Op) || !w.relevantPath(ev.Name) {
					continue
				}
				pending = ev.Name
				if timer == nil {
					timer = time.NewTimer(w.debounce)
					timerCh = timer.C
				} else {
					timer.Reset(w.debounce)
				}

			case <-timerCh:
				timer = nil
				timerCh = nil
				w.logger.Debug("rule files changed", "path", pending)
				select {
				case events <- Event{Path: pending}:
				default:
					// A reload is already queued; coalesce.
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("rule watcher error", "error", err)
			}
		}
	}()

	w.logger.Info("watching rule files", "path", w.path)
	return events, nil
}

// relevantPath filters events down to the watched file, or to YAML
// files when a directory is being watched.
func (w *Watcher) relevantPath(name string) bool {
	if filepath.Ext(w.path) != "" {
		return filepath.Clean(name) == filepath.Clean(w.path)
	}
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func relevantOp(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) ||
		op.Has(fsnotify.Rename) || op.Has(fsnotify.Remove)
}
