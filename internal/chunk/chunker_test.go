package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

func longText() string {
	var b strings.Builder
	for p := 0; p < 12; p++ {
		for s := 0; s < 6; s++ {
			b.WriteString("The retrieval layer splits documents into overlapping windows. ")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// spacedText separates short paragraphs with whitespace runs longer than
// small window sizes.
func spacedText() string {
	var b strings.Builder
	for p := 0; p < 20; p++ {
		b.WriteString("Paragraph text about retrieval windows.")
		b.WriteString(strings.Repeat(" ", 5+p*3))
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("\n", p%4))
	}
	return b.String()
}

func TestSplit_RespectsSizeAndOverlapBounds(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		size, overlap int
	}{
		{"prose 800/200", longText(), 800, 200},
		{"prose 300/50", longText(), 300, 50},
		{"prose no overlap", longText(), 120, 0},
		{"prose max overlap", longText(), 64, 63},
		{"whitespace runs 13/1", spacedText(), 13, 1},
		{"whitespace runs 24/8", spacedText(), 24, 8},
		{"whitespace runs 60/20", spacedText(), 60, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a multi-paragraph document
			docs := []Document{{Source: "a.txt", Text: tt.text}}
			runes := []rune(tt.text)

			// When: splitting
			chunks, err := Split(docs, tt.size, tt.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			// Then: every chunk fits and consecutive chunks overlap within bounds,
			// or are separated only by whitespace no window could bridge
			for i, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), tt.size)
				assert.NotEmpty(t, strings.TrimSpace(c.Text))
				assert.Equal(t, i, c.Index)
				assert.Equal(t, "a.txt", c.Source)
				if i == 0 {
					continue
				}
				prev := chunks[i-1]
				assert.Greater(t, c.Start, prev.Start, "windows must advance")
				shared := prev.End - c.Start
				assert.LessOrEqual(t, shared, tt.overlap)
				if tt.overlap > 0 && shared <= 0 {
					gap := string(runes[prev.End-tt.overlap : c.Start])
					assert.Empty(t, strings.TrimSpace(gap), "only whitespace may separate chunks")
				}
			}
		})
	}
}

func TestSplit_CoversWholeDocument(t *testing.T) {
	text := longText()
	chunks, err := Split([]Document{{Source: "a.txt", Text: text}}, 200, 40)
	require.NoError(t, err)

	runes := []rune(text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].End)
	for _, c := range chunks {
		assert.Equal(t, string(runes[c.Start:c.End]), c.Text)
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	// Given: a paragraph break inside the lookback region
	first := strings.Repeat("alpha ", 12) // 72 runes
	text := first + "\n\n" + strings.Repeat("beta ", 30)

	// When: window size 100
	chunks, err := Split([]Document{{Source: "p.txt", Text: text}}, 100, 10)
	require.NoError(t, err)

	// Then: the first chunk ends right after the blank line
	assert.Equal(t, first+"\n\n", chunks[0].Text)
}

func TestSplit_FallsBackToSentenceEnd(t *testing.T) {
	text := strings.Repeat("word ", 14) + "end. " + strings.Repeat("tail ", 20)

	chunks, err := Split([]Document{{Source: "s.txt", Text: text}}, 100, 10)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "end. "), "got %q", chunks[0].Text)
}

func TestSplit_HardCutWithoutBreakpoints(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks, err := Split([]Document{{Source: "x.txt", Text: text}}, 100, 20)
	require.NoError(t, err)

	assert.Len(t, chunks[0].Text, 100)
	assert.Equal(t, 80, chunks[1].Start)
}

func TestSplit_NextWindowStartsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)

	chunks, err := Split([]Document{{Source: "w.txt", Text: text}}, 100, 30)
	require.NoError(t, err)

	runes := []rune(text)
	for _, c := range chunks[1:] {
		assert.NotEqual(t, ' ', runes[c.Start])
		assert.Equal(t, ' ', runes[c.Start-1], "chunk %d starts mid-word", c.Index)
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 40)

	chunks, err := Split([]Document{{Source: "u.txt", Text: text}}, 50, 10)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text))
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 50)
	}
}

func TestSplit_IDsAreStableAndDistinct(t *testing.T) {
	docs := []Document{{Source: "a.txt", Text: longText()}, {Source: "b.txt", Text: longText()}}

	first, err := Split(docs, 300, 60)
	require.NoError(t, err)
	second, err := Split(docs, 300, 60)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Len(t, first[i].ID, 16)
		assert.False(t, seen[first[i].ID], "duplicate id")
		seen[first[i].ID] = true
	}
}

func TestSplit_ShortDocumentIsOneChunk(t *testing.T) {
	chunks, err := Split([]Document{{Source: "s.txt", Text: "Latency is measured in milliseconds."}}, 800, 200)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Latency is measured in milliseconds.", chunks[0].Text)
}

func TestSplit_EmptyCorpus(t *testing.T) {
	_, err := Split(nil, 800, 200)
	assert.ErrorIs(t, err, ragerrors.ErrEmptyCorpus)

	_, err = Split([]Document{{Source: "blank.txt", Text: " \n\t "}}, 800, 200)
	assert.ErrorIs(t, err, ragerrors.ErrEmptyCorpus)
}

func TestSplit_RejectsInvalidParameters(t *testing.T) {
	docs := []Document{{Source: "a.txt", Text: "text"}}

	for _, tt := range []struct{ size, overlap int }{{0, 0}, {-1, 0}, {100, 100}, {100, -1}} {
		_, err := Split(docs, tt.size, tt.overlap)
		assert.Equal(t, ragerrors.ErrCodeInvalidInput, ragerrors.GetCode(err))
	}
}
