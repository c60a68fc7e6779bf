package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_Embed_HitsCacheOnRepeat(t *testing.T) {
	// Given: a cached embedder
	inner := newCountingEmbedder(4)
	c := NewCachedEmbedder(inner, 10)

	// When: the same query is embedded twice
	first, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)

	// Then: the provider is called once
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.embedCalls.Load())
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCachedEmbedder_Embed_DoesNotCacheFailures(t *testing.T) {
	inner := newCountingEmbedder(4)
	inner.failOn = "bad"
	c := NewCachedEmbedder(inner, 10)

	_, err := c.Embed(context.Background(), "bad")
	require.Error(t, err)
	_, err = c.Embed(context.Background(), "bad")
	require.Error(t, err)

	assert.Equal(t, int64(2), inner.embedCalls.Load())
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCachedEmbedder_Embed_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := newCountingEmbedder(4)
	c := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	_, _ = c.Embed(ctx, "a")
	_, _ = c.Embed(ctx, "b")
	_, _ = c.Embed(ctx, "c") // evicts a
	_, _ = c.Embed(ctx, "a")

	assert.Equal(t, int64(4), inner.embedCalls.Load())
}

func TestCachedEmbedder_EmbedBatch_BypassesCache(t *testing.T) {
	inner := newCountingEmbedder(4)
	c := NewCachedEmbedder(inner, 10)

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 0, c.Stats().Entries)
	assert.Equal(t, int64(1), inner.batchCalls.Load())
	assert.Equal(t, "counting", c.ModelName())
	assert.Equal(t, 4, c.Dimensions())
}
