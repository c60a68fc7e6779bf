package embed

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIConfig configures an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	// BaseURL of the API. Empty uses api.openai.com; local servers
	// (LM Studio, vLLM, llama.cpp) work too.
	BaseURL string
	// Token is the API key. Local servers usually accept any value.
	Token string
	Model string
	// Dimensions can be set to skip detection (0 = learn from first response)
	Dimensions int
}

// OpenAIEmbedder embeds through langchaingo's OpenAI client.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	model    string
	dims     dimensionTracker
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates the client. No request is made.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai embedder requires a model")
	}
	token := cfg.Token
	if token == "" {
		// Local OpenAI-compatible services don't require authentication
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedder: %w", err)
	}

	e := &OpenAIEmbedder{embedder: embedder, model: cfg.Model}
	e.dims.set(cfg.Dimensions)
	return e, nil
}

// Embed generates embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	e.dims.set(len(vec))
	return normalizeVector(vec), nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(vecs), len(texts))
	}
	for i := range vecs {
		vecs[i] = normalizeVector(vecs[i])
	}
	if len(vecs) > 0 {
		e.dims.set(len(vecs[0]))
	}
	return vecs, nil
}

// Dimensions returns the embedding dimension, 0 until known.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims.get()
}

// ModelName returns the model identifier
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op; the client holds no resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
