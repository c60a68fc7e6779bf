package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docrag/internal/chunk"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

func testChunk(id, text string) chunk.Chunk {
	return chunk.Chunk{ID: id, Source: id + ".txt", Text: text, End: len([]rune(text))}
}

func ids(chunks []chunk.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func TestLexicalIndex_Search_RanksByTermFrequency(t *testing.T) {
	// Given: two chunks mentioning latency, one twice, and an unrelated chunk
	idx, err := BuildLexical([]chunk.Chunk{
		testChunk("net", "Network latency measures delay between hosts."),
		testChunk("disk", "Disk throughput and latency latency matter."),
		testChunk("food", "Cooking pasta requires boiling water."),
	}, DefaultBM25Config())
	require.NoError(t, err)

	// When: searching for the shared term
	got := idx.Search("latency", 5)

	// Then: higher frequency wins and the unrelated chunk is excluded
	assert.Equal(t, []string{"disk", "net"}, ids(got))
}

func TestLexicalIndex_Search_CaseInsensitive(t *testing.T) {
	idx, err := BuildLexical([]chunk.Chunk{
		testChunk("a", "Vector databases store embeddings."),
		testChunk("b", "Nothing relevant here."),
	}, DefaultBM25Config())
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(idx.Search("EMBEDDINGS", 3)))
}

func TestLexicalIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	idx, err := BuildLexical([]chunk.Chunk{
		testChunk("first", "retrieval augmented generation"),
		testChunk("other", "unrelated words only"),
		testChunk("second", "retrieval augmented generation"),
	}, DefaultBM25Config())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, ids(idx.Search("generation", 5)))
}

func TestLexicalIndex_Search_NoTokensReturnsNothing(t *testing.T) {
	idx, err := BuildLexical([]chunk.Chunk{testChunk("a", "some text")}, DefaultBM25Config())
	require.NoError(t, err)

	assert.Empty(t, idx.Search("", 5))
	assert.Empty(t, idx.Search("?! ...", 5))
	assert.Empty(t, idx.Search("absent", 5))
}

func TestLexicalIndex_Search_DefaultK(t *testing.T) {
	var chunks []chunk.Chunk
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		chunks = append(chunks, testChunk(id, "shared term "+id))
	}
	idx, err := BuildLexical(chunks, BM25Config{})
	require.NoError(t, err)

	assert.Len(t, idx.Search("shared", 0), DefaultLexicalK)
	assert.Len(t, idx.Search("shared", 2), 2)
}

func TestBuildLexical_ZeroChunksNotReady(t *testing.T) {
	_, err := BuildLexical(nil, DefaultBM25Config())

	assert.ErrorIs(t, err, ragerrors.ErrIndexNotReady)
}

func TestLexicalIndex_Stats(t *testing.T) {
	idx, err := BuildLexical([]chunk.Chunk{
		testChunk("a", "one two"),
		testChunk("b", "two three four five"),
	}, DefaultBM25Config())
	require.NoError(t, err)

	stats := idx.Stats()
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 5, stats.Terms)
	assert.InDelta(t, 3.0, stats.AvgLength, 1e-9)
	assert.Equal(t, 2, idx.Len())
}

func TestAnalyzer_Tokens_LowercasesAndSplits(t *testing.T) {
	a, err := NewAnalyzer()
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "world", "rag"}, a.Tokens("Hello, WORLD! RAG."))
	assert.Empty(t, a.Tokens("  "))
}
