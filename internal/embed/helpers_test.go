package embed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// countingEmbedder records calls and returns one-hot vectors by text length.
type countingEmbedder struct {
	dims       int
	embedCalls atomic.Int64
	batchCalls atomic.Int64

	mu      sync.Mutex
	batches [][]string
	failOn  string
}

func newCountingEmbedder(dims int) *countingEmbedder {
	return &countingEmbedder{dims: dims}
}

func (c *countingEmbedder) vector(text string) []float32 {
	v := make([]float32, c.dims)
	v[len(text)%c.dims] = 1
	return v
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.embedCalls.Add(1)
	if c.failOn != "" && text == c.failOn {
		return nil, fmt.Errorf("provider down")
	}
	return c.vector(text), nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls.Add(1)
	c.mu.Lock()
	c.batches = append(c.batches, append([]string(nil), texts...))
	c.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.failOn != "" && t == c.failOn {
			return nil, fmt.Errorf("provider down")
		}
		out[i] = c.vector(t)
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int   { return c.dims }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Close() error      { return nil }
