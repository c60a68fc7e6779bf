package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/docrag/internal/chunk"
	"github.com/Aman-CERP/docrag/internal/embed"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// SemanticIndex is a persisted collection of embedded chunks with an
// in-memory graph for nearest-neighbour search. The handle is immutable; a
// rebuild produces a new handle.
type SemanticIndex struct {
	dir      string
	db       *sql.DB
	info     CollectionInfo
	chunks   []chunk.Chunk
	graph    *VectorGraph
	embedder embed.Embedder

	closeOnce sync.Once
	closeErr  error
}

// BuildSemantic embeds every chunk and replaces the collection in
// <dir>/semantic.db. Existing records stay visible to other readers until the
// replacement commits. An embedding failure persists nothing.
func BuildSemantic(ctx context.Context, dir string, chunks []chunk.Chunk, embedder embed.Embedder, opts SemanticOptions) (*SemanticIndex, error) {
	opts = opts.withDefaults()
	if len(chunks) == 0 {
		return nil, ragerrors.IndexNotReady("cannot build semantic index from zero chunks")
	}
	if opts.Metric != MetricCosine && opts.Metric != MetricL2 {
		return nil, ragerrors.ValidationError(fmt.Sprintf("unknown metric %q", opts.Metric), nil)
	}

	start := time.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embed.EmbedAll(ctx, embedder, texts, embed.BatchOptions{
		BatchSize: opts.BatchSize,
		Workers:   opts.Workers,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ragerrors.EmbeddingProvider("failed to embed chunks", err).
			WithDetail("model", embedder.ModelName()).
			WithDetail("chunks", fmt.Sprint(len(chunks)))
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, ragerrors.New(ragerrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("embedding %d has %d dimensions, expected %d", i, len(v), dims), nil)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to create index directory", err).WithDetail("dir", dir)
	}

	lock := NewBuildLock(dir)
	if err := lock.Lock(ctx); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to lock index directory", err).WithDetail("lock", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	db, err := openDatabase(databasePath(dir))
	if err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to open semantic database", err).WithDetail("dir", dir)
	}

	info := CollectionInfo{
		Name:       opts.Collection,
		Dimensions: dims,
		Metric:     opts.Metric,
		Model:      embedder.ModelName(),
		Count:      len(chunks),
		CreatedAt:  time.Now(),
	}
	records := make([]record, len(chunks))
	for i := range chunks {
		records[i] = record{chunk: chunks[i], vector: vectors[i]}
	}

	if err := replaceCollection(ctx, db, info, records); err != nil {
		_ = db.Close()
		return nil, ragerrors.New(ragerrors.ErrCodeStorage, "failed to persist semantic collection", err).
			WithDetail("collection", info.Name)
	}

	idx := newSemanticIndex(dir, db, info, records, embedder, opts)

	slog.Info("semantic_index_built",
		slog.String("collection", info.Name),
		slog.Int("records", info.Count),
		slog.Int("dimensions", dims),
		slog.String("metric", info.Metric),
		slog.Bool("approximate", idx.graph.Approximate()),
		slog.Duration("duration", time.Since(start)))

	return idx, nil
}

// LoadSemantic attaches to an existing collection. It never builds: a missing
// directory, database or an empty collection is IndexNotFound.
func LoadSemantic(ctx context.Context, dir string, embedder embed.Embedder, opts SemanticOptions) (*SemanticIndex, error) {
	opts = opts.withDefaults()
	notFound := func(msg string, cause error) error {
		return ragerrors.IndexNotFound(msg, cause).
			WithDetail("dir", dir).
			WithDetail("collection", opts.Collection).
			WithSuggestion("Run 'docrag index' to build the semantic index")
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, notFound("semantic index directory not found", err)
	}
	path := databasePath(dir)
	if !fileExists(path) {
		return nil, notFound("semantic index database not found", nil)
	}

	start := time.Now()
	db, err := openDatabase(path)
	if err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeCorruptIndex, "failed to open semantic database", err).WithDetail("path", path)
	}

	info, err := readCollectionInfo(ctx, db, opts.Collection)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && info.Count == 0) {
		_ = db.Close()
		return nil, notFound("semantic collection is empty", nil)
	}
	if err != nil {
		_ = db.Close()
		return nil, ragerrors.New(ragerrors.ErrCodeCorruptIndex, "failed to read semantic collection", err).WithDetail("path", path)
	}

	if dims := embedder.Dimensions(); dims > 0 && dims != info.Dimensions {
		_ = db.Close()
		return nil, ragerrors.New(ragerrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("index has %d dimensions, embedder %s produces %d", info.Dimensions, embedder.ModelName(), dims), nil).
			WithSuggestion("Rebuild the index with 'docrag index' after changing the embedding model")
	}
	if info.Model != embedder.ModelName() {
		slog.Warn("semantic_index_model_differs",
			slog.String("index_model", info.Model),
			slog.String("embedder_model", embedder.ModelName()))
	}

	records, err := readRecords(ctx, db, info.Name, info.Dimensions)
	if err != nil {
		_ = db.Close()
		return nil, ragerrors.New(ragerrors.ErrCodeCorruptIndex, "failed to load semantic records", err).WithDetail("path", path)
	}

	idx := newSemanticIndex(dir, db, info, records, embedder, opts)

	slog.Info("semantic_index_loaded",
		slog.String("collection", info.Name),
		slog.Int("records", len(records)),
		slog.String("metric", info.Metric),
		slog.Duration("duration", time.Since(start)))

	return idx, nil
}

func newSemanticIndex(dir string, db *sql.DB, info CollectionInfo, records []record, embedder embed.Embedder, opts SemanticOptions) *SemanticIndex {
	chunks := make([]chunk.Chunk, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		chunks[i] = r.chunk
		vectors[i] = r.vector
	}
	info.Count = len(records)

	return &SemanticIndex{
		dir:      dir,
		db:       db,
		info:     info,
		chunks:   chunks,
		embedder: embedder,
		graph: NewVectorGraph(vectors, GraphConfig{
			Metric:         info.Metric,
			M:              opts.M,
			EfSearch:       opts.EfSearch,
			Seed:           opts.Seed,
			ExactThreshold: opts.ExactThreshold,
			Overfetch:      opts.Overfetch,
		}),
	}
}

// Search embeds the query and returns the k nearest chunks, nearest first.
// k <= 0 means DefaultSemanticK. Embedding failures are not retried.
func (s *SemanticIndex) Search(ctx context.Context, query string, k int) ([]chunk.Chunk, error) {
	if k <= 0 {
		k = DefaultSemanticK
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ragerrors.EmbeddingProvider("failed to embed query", err).WithDetail("model", s.embedder.ModelName())
	}
	if len(vec) != s.info.Dimensions {
		return nil, ragerrors.New(ragerrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query embedding has %d dimensions, index has %d", len(vec), s.info.Dimensions), nil)
	}

	hits := s.graph.Search(vec, k)
	out := make([]chunk.Chunk, len(hits))
	for i, h := range hits {
		out[i] = s.chunks[h.Position]
	}

	if len(hits) > 0 {
		slog.Debug("semantic_search",
			slog.Int("k", k),
			slog.Int("results", len(hits)),
			slog.Float64("top_score", float64(distanceToScore(hits[0].Distance, s.info.Metric))))
	}
	return out, nil
}

// Info returns the collection description.
func (s *SemanticIndex) Info() CollectionInfo {
	return s.info
}

// Len returns the number of records.
func (s *SemanticIndex) Len() int {
	return len(s.chunks)
}

// Dir returns the index directory.
func (s *SemanticIndex) Dir() string {
	return s.dir
}

// Close releases the database. Safe to call more than once.
func (s *SemanticIndex) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// ReadCollectionInfo reports on a persisted collection without loading it.
// Returns IndexNotFound when nothing has been built.
func ReadCollectionInfo(ctx context.Context, dir, collection string) (CollectionInfo, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	path := databasePath(dir)
	if !fileExists(path) {
		return CollectionInfo{}, ragerrors.IndexNotFound("semantic index database not found", nil).WithDetail("dir", dir)
	}

	db, err := openDatabase(path)
	if err != nil {
		return CollectionInfo{}, ragerrors.New(ragerrors.ErrCodeCorruptIndex, "failed to open semantic database", err)
	}
	defer func() { _ = db.Close() }()

	info, err := readCollectionInfo(ctx, db, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return CollectionInfo{}, ragerrors.IndexNotFound("semantic collection not found", nil).WithDetail("collection", collection)
	}
	if err != nil {
		return CollectionInfo{}, ragerrors.New(ragerrors.ErrCodeCorruptIndex, "failed to read semantic collection", err)
	}
	return info, nil
}
