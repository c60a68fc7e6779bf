package embed

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	gemini "github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

// GeminiConfig configures the Gemini embedding API.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Dimensions can be set to skip detection (0 = learn from first response)
	Dimensions int
}

// GeminiEmbedder embeds through chroma-go's Gemini embedding function.
type GeminiEmbedder struct {
	ef    embeddings.EmbeddingFunction
	model string
	dims  dimensionTracker
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates the embedding function.
func NewGeminiEmbedder(cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini embedder requires an API key")
	}

	opts := []gemini.Option{gemini.WithAPIKey(cfg.APIKey)}
	if cfg.Model != "" {
		opts = append(opts, gemini.WithDefaultModel(embeddings.EmbeddingModel(cfg.Model)))
	}

	ef, err := gemini.NewGeminiEmbeddingFunction(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	e := &GeminiEmbedder{ef: ef, model: cfg.Model}
	if e.model == "" {
		e.model = "gemini"
	}
	e.dims.set(cfg.Dimensions)
	return e, nil
}

// Embed generates embedding for a single text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := e.ef.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	vec := emb.ContentAsFloat32()
	e.dims.set(len(vec))
	return normalizeVector(vec), nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embs, err := e.ef.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if len(embs) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(embs), len(texts))
	}

	out := make([][]float32, len(embs))
	for i, emb := range embs {
		out[i] = normalizeVector(emb.ContentAsFloat32())
	}
	if len(out) > 0 {
		e.dims.set(len(out[0]))
	}
	return out, nil
}

// Dimensions returns the embedding dimension, 0 until known.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dims.get()
}

// ModelName returns the model identifier
func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op.
func (e *GeminiEmbedder) Close() error {
	return nil
}
