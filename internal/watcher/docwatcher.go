package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DocWatcher reports debounced batches of document changes under a root
// directory. Hidden paths and files rejected by Options.Accept are ignored.
type DocWatcher struct {
	opts      Options
	debouncer *Debouncer
	fsWatcher *fsnotify.Watcher
	poller    *Poller
	root      string

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a watcher. It uses fsnotify unless that cannot be initialized
// or ForcePolling is set.
func New(opts Options) *DocWatcher {
	opts = opts.withDefaults()
	w := &DocWatcher{
		opts:      opts,
		debouncer: NewDebouncer(opts.Debounce, opts.EventBufferSize),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
			return w
		}
		slog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
	}
	w.poller = NewPoller(opts.PollInterval, w.relevant)
	return w
}

// Start watches root until ctx is done or Stop is called. It blocks.
func (w *DocWatcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", abs)
	}
	w.root = abs

	slog.Info("watch_started", slog.String("root", abs), slog.String("backend", w.Backend()))

	if w.fsWatcher == nil {
		return w.poller.Run(ctx, abs, w.stopCh, w.debouncer.Add)
	}
	return w.runFsnotify(ctx)
}

func (w *DocWatcher) runFsnotify(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("watch directories: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// handle converts an fsnotify event and queues it if it concerns a document.
func (w *DocWatcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." || hidden(rel) {
		return
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreate
		if isDir {
			// Files written into a new directory before the watch lands are
			// picked up by the rebuild this event triggers.
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("watch_add_failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
		}
	case ev.Has(fsnotify.Write):
		op = OpModify
	case ev.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	if !w.relevant(rel, isDir, op) {
		return
	}
	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Time: time.Now()})
}

// relevant reports whether a change can affect the document set. A removed
// or renamed path may have been a directory of documents.
func (w *DocWatcher) relevant(rel string, isDir bool, op Operation) bool {
	if hidden(rel) {
		return false
	}
	if isDir {
		return op != OpModify
	}
	if w.opts.Accept == nil || w.opts.Accept(rel) {
		return true
	}
	return (op == OpDelete || op == OpRename) && filepath.Ext(rel) == ""
}

// addTree watches dir and every non-hidden directory below it.
func (w *DocWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); rel != "." && hidden(rel) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Events returns debounced batches. The channel closes on Stop.
func (w *DocWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Backend returns "fsnotify" or "polling".
func (w *DocWatcher) Backend() string {
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// Stop releases the watcher. Safe to call more than once.
func (w *DocWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
