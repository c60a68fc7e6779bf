// Package scanner loads the document corpus from disk.
// It walks a directory, keeps files with configured extensions, skips binary
// and oversized files, and reads each through a format-specific reader.
package scanner

import (
	"context"

	"github.com/Aman-CERP/docrag/internal/chunk"
)

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Source produces the full document set for an index build.
type Source interface {
	// LoadAll returns every document, ordered by source path.
	LoadAll(ctx context.Context) ([]chunk.Document, error)
}

// Reader extracts plain text from one file format.
type Reader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

// Options configures a DirSource.
type Options struct {
	// Dir is the corpus root, walked recursively.
	Dir string

	// Extensions selects files to load (default: .txt).
	Extensions []string

	// MaxFileSize is the maximum file size in bytes (0 = 10MB default).
	MaxFileSize int64

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool

	// Readers override the default reader chain. Tried in order.
	Readers []Reader
}
