package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docrag/internal/chunk"
	"github.com/Aman-CERP/docrag/internal/embed"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/scanner"
	"github.com/Aman-CERP/docrag/internal/store"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Engine owns the lexical and semantic index handles. Queries load the
// current handle atomically and never block on a build; builds of each index
// are serialized.
type Engine struct {
	source   scanner.Source
	embedder embed.Embedder
	config   EngineConfig

	lexical  atomic.Pointer[store.LexicalIndex]
	semantic atomic.Pointer[store.SemanticIndex]

	lexMu sync.Mutex // Serializes lexical builds
	semMu sync.Mutex // Serializes semantic loads and builds

	closed atomic.Bool
}

// NewEngine creates an engine with both indexes uninitialized. Nothing is
// loaded or built until the first query or BuildAll.
func NewEngine(source scanner.Source, embedder embed.Embedder, config EngineConfig) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: document source is required", ErrNilDependency)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrNilDependency)
	}
	return &Engine{
		source:   source,
		embedder: embedder,
		config:   config.withDefaults(),
	}, nil
}

// Retrieve answers query in the given mode. The lexical index is built from
// the source on first use; the semantic index is only ever loaded from disk.
// A failed attempt leaves the index uninitialized so the next call retries.
func (e *Engine) Retrieve(ctx context.Context, query string, mode Mode) ([]chunk.Chunk, error) {
	if !mode.Valid() {
		return nil, ragerrors.InvalidMode(mode.String())
	}
	if e.closed.Load() {
		return nil, ragerrors.IndexNotReady("engine is closed")
	}

	start := time.Now()
	var (
		results []chunk.Chunk
		err     error
	)
	switch mode {
	case ModeLexical:
		results, err = e.retrieveLexical(ctx, query)
	case ModeSemantic:
		results, err = e.retrieveSemantic(ctx, query)
	case ModeHybrid:
		results, err = e.retrieveHybrid(ctx, query)
	}
	if err != nil {
		slog.Warn("retrieve_failed",
			slog.String("mode", mode.String()),
			slog.String("code", ragerrors.GetCode(err)),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.Debug("retrieve_completed",
		slog.String("mode", mode.String()),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

func (e *Engine) retrieveLexical(ctx context.Context, query string) ([]chunk.Chunk, error) {
	idx, err := e.ensureLexical(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(query, e.config.LexicalK), nil
}

func (e *Engine) retrieveSemantic(ctx context.Context, query string) ([]chunk.Chunk, error) {
	idx, err := e.ensureSemantic(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, e.config.SemanticK)
}

// retrieveHybrid queries both indexes concurrently and fuses lexical first.
func (e *Engine) retrieveHybrid(ctx context.Context, query string) ([]chunk.Chunk, error) {
	var lexical, semantic []chunk.Chunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = e.retrieveLexical(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		semantic, err = e.retrieveSemantic(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Fuse(lexical, semantic, e.config.HybridCap), nil
}

// ensureLexical returns the lexical handle, building it from the source if
// none is ready.
func (e *Engine) ensureLexical(ctx context.Context) (*store.LexicalIndex, error) {
	if idx := e.lexical.Load(); idx != nil {
		return idx, nil
	}

	e.lexMu.Lock()
	defer e.lexMu.Unlock()

	if idx := e.lexical.Load(); idx != nil {
		return idx, nil
	}

	docs, err := e.source.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := chunk.Split(docs, e.config.ChunkSize, e.config.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	idx, err := store.BuildLexical(chunks, e.config.BM25)
	if err != nil {
		return nil, err
	}

	e.lexical.Store(idx)
	stats := idx.Stats()
	slog.Info("lexical_index_ready",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", stats.Chunks),
		slog.Int("terms", stats.Terms))
	return idx, nil
}

// PrepareLexical builds the lexical index from the source if it is not ready
// and returns its statistics.
func (e *Engine) PrepareLexical(ctx context.Context) (store.LexicalStats, error) {
	if e.closed.Load() {
		return store.LexicalStats{}, ragerrors.IndexNotReady("engine is closed")
	}
	idx, err := e.ensureLexical(ctx)
	if err != nil {
		return store.LexicalStats{}, err
	}
	return idx.Stats(), nil
}

// ensureSemantic returns the semantic handle, loading the persisted
// collection if none is ready. It never builds.
func (e *Engine) ensureSemantic(ctx context.Context) (*store.SemanticIndex, error) {
	if idx := e.semantic.Load(); idx != nil {
		return idx, nil
	}

	e.semMu.Lock()
	defer e.semMu.Unlock()

	if idx := e.semantic.Load(); idx != nil {
		return idx, nil
	}

	idx, err := store.LoadSemantic(ctx, e.config.SemanticDir, e.embedder, e.config.Semantic)
	if err != nil {
		return nil, err
	}
	e.semantic.Store(idx)
	return idx, nil
}

// BuildAll chunks docs, builds both indexes and swaps them in together. The
// semantic collection on disk is replaced. On failure neither handle changes.
func (e *Engine) BuildAll(ctx context.Context, docs []chunk.Document) error {
	if e.closed.Load() {
		return ragerrors.IndexNotReady("engine is closed")
	}

	e.lexMu.Lock()
	defer e.lexMu.Unlock()
	e.semMu.Lock()
	defer e.semMu.Unlock()

	start := time.Now()
	chunks, err := chunk.Split(docs, e.config.ChunkSize, e.config.ChunkOverlap)
	if err != nil {
		return err
	}

	lex, err := store.BuildLexical(chunks, e.config.BM25)
	if err != nil {
		return err
	}
	sem, err := store.BuildSemantic(ctx, e.config.SemanticDir, chunks, e.embedder, e.config.Semantic)
	if err != nil {
		return err
	}

	e.lexical.Store(lex)
	if old := e.semantic.Swap(sem); old != nil {
		// Searches on the old handle use only memory.
		if err := old.Close(); err != nil {
			slog.Warn("semantic_handle_close_failed", slog.String("error", err.Error()))
		}
	}

	slog.Info("indexes_built",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Rebuild reloads every document from the source and runs BuildAll.
func (e *Engine) Rebuild(ctx context.Context) error {
	docs, err := e.source.LoadAll(ctx)
	if err != nil {
		return err
	}
	return e.BuildAll(ctx, docs)
}

// LexicalState reports whether the lexical index is ready.
func (e *Engine) LexicalState() State {
	if e.lexical.Load() != nil {
		return StateReady
	}
	return StateUninitialized
}

// SemanticState reports whether the semantic index is ready.
func (e *Engine) SemanticState() State {
	if e.semantic.Load() != nil {
		return StateReady
	}
	return StateUninitialized
}

// Status reports both index states and sizes.
func (e *Engine) Status() Status {
	s := Status{
		Lexical:    e.LexicalState(),
		Semantic:   e.SemanticState(),
		Collection: e.config.Semantic.Collection,
	}
	if idx := e.lexical.Load(); idx != nil {
		stats := idx.Stats()
		s.LexicalChunks = stats.Chunks
		s.LexicalTerms = stats.Terms
	}
	if idx := e.semantic.Load(); idx != nil {
		s.SemanticChunks = idx.Len()
		s.Collection = idx.Info().Name
	}
	if cached, ok := e.embedder.(*embed.CachedEmbedder); ok {
		stats := cached.Stats()
		s.QueryCache = &stats
	}
	return s
}

// Close releases the semantic handle. Further queries fail.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.semMu.Lock()
	defer e.semMu.Unlock()

	e.lexical.Store(nil)
	if idx := e.semantic.Swap(nil); idx != nil {
		return idx.Close()
	}
	return nil
}
