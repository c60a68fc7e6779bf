package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/docrag/internal/answer"
	"github.com/Aman-CERP/docrag/internal/config"
	"github.com/Aman-CERP/docrag/internal/embed"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/scanner"
	"github.com/Aman-CERP/docrag/internal/search"
	"github.com/Aman-CERP/docrag/internal/store"
)

// app is the wiring shared by commands: config, document source, embedder
// and the retrieval engine.
type app struct {
	cfg      *config.Config
	source   *scanner.DirSource
	embedder embed.Embedder
	engine   *search.Engine
}

func loadApp(configDir string) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, ragerrors.ConfigError("failed to load configuration", err)
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	provider, err := embed.ParseProvider(cfg.Embeddings.Provider)
	if err != nil {
		return nil, ragerrors.ConfigError("invalid embedding provider", err)
	}

	embedder, err := embed.NewEmbedder(embed.Config{
		Provider:  provider,
		Model:     cfg.Embeddings.Model,
		Host:      cfg.Embeddings.Host,
		APIKey:    cfg.Embeddings.APIKey,
		BatchSize: cfg.Embeddings.BatchSize,
		Timeout:   cfg.Embeddings.Timeout,
		CacheSize: cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return nil, ragerrors.EmbeddingProvider("failed to create embedder", err)
	}

	source := scanner.NewDirSource(scanner.Options{
		Dir:        cfg.Documents.Dir,
		Extensions: cfg.Documents.Extensions,
	})

	engine, err := search.NewEngine(source, embedder, engineConfig(cfg))
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	slog.Debug("app_loaded",
		slog.String("documents", cfg.Documents.Dir),
		slog.String("vector_store", cfg.Semantic.Dir),
		slog.String("provider", provider.String()))

	return &app{cfg: cfg, source: source, embedder: embedder, engine: engine}, nil
}

func engineConfig(cfg *config.Config) search.EngineConfig {
	return search.EngineConfig{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		LexicalK:     cfg.Search.LexicalK,
		SemanticK:    cfg.Search.SemanticK,
		HybridCap:    cfg.Search.HybridCap,
		BM25:         store.BM25Config{K1: cfg.Search.BM25K1, B: cfg.Search.BM25B},
		SemanticDir:  cfg.Semantic.Dir,
		Semantic: store.SemanticOptions{
			Collection:     cfg.Semantic.Collection,
			Metric:         cfg.Semantic.Metric,
			M:              cfg.Semantic.M,
			EfSearch:       cfg.Semantic.EfSearch,
			Seed:           cfg.Semantic.Seed,
			ExactThreshold: cfg.Semantic.ExactThreshold,
			BatchSize:      cfg.Embeddings.BatchSize,
			Workers:        cfg.Embeddings.Workers,
		},
	}
}

// pipeline builds the answer pipeline over the engine with the Ollama
// generator. Generation is retried per generation.max_retries.
func (a *app) pipeline() (*answer.Pipeline, error) {
	gen, err := answer.NewOllamaGenerator(answer.OllamaConfig{
		Host:        a.cfg.Generation.Host,
		Model:       a.cfg.Generation.Model,
		Temperature: a.cfg.Generation.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	retry := ragerrors.DefaultRetryConfig()
	retry.MaxRetries = a.cfg.Generation.MaxRetries
	return answer.NewPipeline(a.engine, gen, answer.WithRetry(retry)), nil
}

// mode resolves a --mode flag, falling back to search.default_mode.
func (a *app) mode(flag string) (search.Mode, error) {
	if flag == "" {
		flag = a.cfg.Search.DefaultMode
	}
	return search.ParseMode(flag)
}

func (a *app) Close() error {
	err := a.engine.Close()
	if cerr := a.embedder.Close(); err == nil {
		err = cerr
	}
	return err
}
