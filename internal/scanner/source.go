package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/docrag/internal/chunk"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// DirSource loads documents from a directory tree.
type DirSource struct {
	opts       Options
	extensions map[string]bool
}

// NewDirSource creates a DirSource. Extensions are normalized to a leading dot
// and lower case.
func NewDirSource(opts Options) *DirSource {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".txt"}
	}
	if len(opts.Readers) == 0 {
		opts.Readers = DefaultReaders()
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}

	return &DirSource{opts: opts, extensions: exts}
}

// Dir returns the corpus root.
func (s *DirSource) Dir() string {
	return s.opts.Dir
}

// Accepts reports whether path has one of the configured extensions.
func (s *DirSource) Accepts(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// LoadAll walks the directory and returns every readable document sorted by
// path. A missing directory or an empty result is an EmptyCorpus error.
// Unreadable files are logged and skipped.
func (s *DirSource) LoadAll(ctx context.Context) ([]chunk.Document, error) {
	root := s.opts.Dir
	info, err := os.Stat(root)
	if err != nil {
		return nil, ragerrors.EmptyCorpus("document directory not found", err).
			WithDetail("dir", root).
			WithSuggestion("Create the directory and add documents, or set documents.dir in .docrag.yaml")
	}
	if !info.IsDir() {
		return nil, ragerrors.EmptyCorpus("document path is not a directory", nil).WithDetail("dir", root)
	}

	paths, err := s.collect(ctx, root)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]chunk.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := s.read(path)
		if err != nil {
			slog.Warn("document_skipped", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, chunk.Document{Source: path, Text: text})
	}

	if len(docs) == 0 {
		return nil, ragerrors.EmptyCorpus("no documents found", nil).
			WithDetail("dir", root).
			WithDetail("extensions", strings.Join(s.opts.Extensions, ",")).
			WithSuggestion("Add files with a configured extension to the document directory")
	}

	slog.Debug("documents_loaded", slog.String("dir", root), slog.Int("count", len(docs)))
	return docs, nil
}

// collect returns the paths of candidate files under root.
func (s *DirSource) collect(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !s.opts.FollowSymlinks {
			return nil
		}

		if !s.Accepts(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.opts.MaxFileSize {
			slog.Debug("document_too_large", slog.String("path", path), slog.Int64("size", info.Size()))
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to walk document directory", err)
	}
	return paths, nil
}

func (s *DirSource) read(path string) (string, error) {
	for _, r := range s.opts.Readers {
		if r.CanRead(path) {
			return r.ReadText(path)
		}
	}
	return "", fmt.Errorf("no reader for %s", filepath.Ext(path))
}

// StaticSource serves a fixed document set.
type StaticSource []chunk.Document

// LoadAll returns the documents, or EmptyCorpus when there are none.
func (s StaticSource) LoadAll(context.Context) ([]chunk.Document, error) {
	if len(s) == 0 {
		return nil, ragerrors.EmptyCorpus("no documents", nil)
	}
	out := make([]chunk.Document, len(s))
	copy(out, s)
	return out, nil
}
