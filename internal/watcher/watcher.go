package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Operation is the kind of change observed for a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change. Path is relative to the watched root.
type FileEvent struct {
	Path      string
	Operation Operation
	IsDir     bool
	Time      time.Time
}

// Options configures watching.
type Options struct {
	// Debounce is the quiet period that ends a burst of events.
	Debounce time.Duration

	// PollInterval is the scan interval when fsnotify is unavailable.
	PollInterval time.Duration

	// EventBufferSize bounds the number of pending batches.
	EventBufferSize int

	// Accept reports whether a file path is a document. Nil accepts every
	// file.
	Accept func(path string) bool

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Debounce:        500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	return o
}

// hidden reports whether any element of the relative path starts with a dot.
func hidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
