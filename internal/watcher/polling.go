package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"
)

// Poller detects changes by comparing directory snapshots.
type Poller struct {
	interval time.Duration
	relevant func(rel string, isDir bool, op Operation) bool
	state    map[string]snapshot
}

type snapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPoller creates a poller. relevant filters emitted events; nil keeps all.
func NewPoller(interval time.Duration, relevant func(rel string, isDir bool, op Operation) bool) *Poller {
	return &Poller{interval: interval, relevant: relevant}
}

// Run takes a baseline snapshot, then diffs every interval and passes
// changes to emit until ctx is done or stop is closed.
func (p *Poller) Run(ctx context.Context, root string, stop <-chan struct{}, emit func(FileEvent)) error {
	p.state = p.snapshot(root)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			for _, ev := range p.Diff(root) {
				emit(ev)
			}
		}
	}
}

// Diff compares the current tree with the previous snapshot and returns the
// relevant changes, deletions last.
func (p *Poller) Diff(root string) []FileEvent {
	current := p.snapshot(root)
	now := time.Now()

	var events []FileEvent
	add := func(rel string, isDir bool, op Operation) {
		if p.relevant == nil || p.relevant(rel, isDir, op) {
			events = append(events, FileEvent{Path: rel, Operation: op, IsDir: isDir, Time: now})
		}
	}

	for rel, cur := range current {
		prev, ok := p.state[rel]
		switch {
		case !ok:
			add(rel, cur.isDir, OpCreate)
		case !cur.isDir && (prev.modTime != cur.modTime || prev.size != cur.size):
			add(rel, false, OpModify)
		}
	}
	for rel, prev := range p.state {
		if _, ok := current[rel]; !ok {
			add(rel, prev.isDir, OpDelete)
		}
	}

	p.state = current
	return events
}

func (p *Poller) snapshot(root string) map[string]snapshot {
	out := make(map[string]snapshot)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if hidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out[rel] = snapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
	return out
}
