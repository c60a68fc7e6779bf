// Package embed provides embedding providers for the semantic index.
// Providers: Ollama (HTTP), OpenAI-compatible (langchaingo), Gemini
// (chroma-go) and a static hash embedder for offline use.
package embed

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

const (
	// DefaultBatchSize is the default batch size for embedding requests
	DefaultBatchSize = 32

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion)
	MaxBatchSize = 256

	// DefaultTimeout bounds a single provider request
	DefaultTimeout = 2 * time.Minute

	// StaticDimensions is the embedding dimension for the static embedder
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension, or 0 if not yet known
	Dimensions() int

	// ModelName returns the model identifier
	ModelName() string

	// Close releases resources
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // Return as-is if zero vector
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// dimensionTracker remembers the first non-zero dimension it sees.
type dimensionTracker struct {
	n atomic.Int64
}

func (d *dimensionTracker) set(n int) {
	if n > 0 {
		d.n.CompareAndSwap(0, int64(n))
	}
}

func (d *dimensionTracker) get() int {
	return int(d.n.Load())
}
