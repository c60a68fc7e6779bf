package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// breakpoints in order of preference. Each marks the end of a window.
var breakpoints = []string{"\n\n", "\n", ". ", "! ", "? "}

// Split cuts every document into windows of at most size runes, each starting
// overlap runes before the previous window's end.
//
// Window ends prefer a paragraph break, then a line break, then a sentence end,
// then whitespace, searched in the latter half of the window. The next start is
// moved forward to a word start inside the overlap when one exists. Windows
// holding only whitespace are skipped.
func Split(docs []Document, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, ragerrors.ValidationError(fmt.Sprintf("chunk size must be positive, got %d", size), nil)
	}
	if overlap < 0 || overlap >= size {
		return nil, ragerrors.ValidationError(
			fmt.Sprintf("chunk overlap must be in [0, %d), got %d", size, overlap), nil)
	}
	if len(docs) == 0 {
		return nil, ragerrors.EmptyCorpus("no documents to chunk", nil)
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, splitDocument(doc, size, overlap)...)
	}

	if len(chunks) == 0 {
		return nil, ragerrors.EmptyCorpus("documents contain no text", nil).
			WithDetail("documents", fmt.Sprint(len(docs)))
	}
	return chunks, nil
}

func splitDocument(doc Document, size, overlap int) []Chunk {
	runes := []rune(doc.Text)
	n := len(runes)

	var chunks []Chunk
	start := 0
	for start < n {
		end := min(start+size, n)
		if end < n {
			end = findBreak(runes, start, end, size, overlap)
		}

		text := string(runes[start:end])
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, Chunk{
				ID:     chunkID(doc.Source, start, end),
				Source: doc.Source,
				Text:   text,
				Index:  len(chunks),
				Start:  start,
				End:    end,
			})
		}

		if end >= n {
			break
		}
		// end > start+overlap, so this always advances.
		start = snapToWord(runes, end-overlap, end)
	}
	return chunks
}

// findBreak returns the preferred window end in [lo, end]. The lower bound keeps
// the window past start+overlap so the next window still advances.
func findBreak(runes []rune, start, end, size, overlap int) int {
	lo := max(start+overlap+1, start+size/2)
	if lo > end {
		return end
	}

	for _, sep := range breakpoints {
		for pos := end; pos >= lo; pos-- {
			if endsWith(runes, pos, sep) {
				return pos
			}
		}
	}
	for pos := end; pos >= lo; pos-- {
		if unicode.IsSpace(runes[pos-1]) {
			return pos
		}
	}
	return end
}

func endsWith(runes []rune, pos int, sep string) bool {
	s := []rune(sep)
	if pos < len(s) {
		return false
	}
	for i, r := range s {
		if runes[pos-len(s)+i] != r {
			return false
		}
	}
	return true
}

// snapToWord returns the first word start in [from, limit), or from if none.
func snapToWord(runes []rune, from, limit int) int {
	for pos := from; pos < limit; pos++ {
		if unicode.IsSpace(runes[pos]) {
			continue
		}
		if pos == 0 || unicode.IsSpace(runes[pos-1]) {
			return pos
		}
	}
	return from
}

func chunkID(source string, start, end int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", source, start, end)))
	return hex.EncodeToString(sum[:])[:16]
}
