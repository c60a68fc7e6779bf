package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Rebuilder rebuilds every index from the document source.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// RebuildResult describes one rebuild triggered by a batch of changes.
type RebuildResult struct {
	Events   []FileEvent
	Duration time.Duration
	Err      error
}

// Watch rebuilds target after each debounced batch of document changes
// under root. Rebuilds run one at a time. A failed rebuild is reported and
// watching continues. Watch returns when ctx is done.
func Watch(ctx context.Context, root string, target Rebuilder, opts Options, onRebuild func(RebuildResult)) error {
	w := New(opts)
	defer func() { _ = w.Stop() }()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx, root) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			res := rebuild(ctx, target, batch)
			if onRebuild != nil {
				onRebuild(res)
			}
		}
	}
}

func rebuild(ctx context.Context, target Rebuilder, batch []FileEvent) RebuildResult {
	slog.Info("documents_changed", slog.Int("events", len(batch)), slog.String("first", batch[0].Path))

	start := time.Now()
	err := target.Rebuild(ctx)
	res := RebuildResult{Events: batch, Duration: time.Since(start), Err: err}
	if err != nil {
		slog.Error("rebuild_failed", slog.String("error", err.Error()), slog.Duration("duration", res.Duration))
	} else {
		slog.Info("rebuild_completed", slog.Duration("duration", res.Duration))
	}
	return res
}
