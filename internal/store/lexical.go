package store

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Aman-CERP/docrag/internal/chunk"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// LexicalIndex is an in-memory BM25 inverted index over chunks.
// It is immutable after BuildLexical returns.
type LexicalIndex struct {
	chunks   []chunk.Chunk
	postings map[string][]posting
	lengths  []int
	avgLen   float64
	config   BM25Config
	analyzer *Analyzer
}

// posting records one chunk containing a term.
type posting struct {
	pos  int // Chunk insertion position
	freq int
}

// BuildLexical tokenizes every chunk and builds postings and corpus
// statistics. Chunk order is preserved and breaks score ties.
func BuildLexical(chunks []chunk.Chunk, cfg BM25Config) (*LexicalIndex, error) {
	if len(chunks) == 0 {
		return nil, ragerrors.IndexNotReady("cannot build lexical index from zero chunks")
	}
	if cfg.K1 == 0 && cfg.B == 0 {
		cfg = DefaultBM25Config()
	}

	analyzer, err := NewAnalyzer()
	if err != nil {
		return nil, ragerrors.InternalError("failed to create analyzer", err)
	}

	start := time.Now()
	idx := &LexicalIndex{
		chunks:   make([]chunk.Chunk, len(chunks)),
		postings: make(map[string][]posting),
		lengths:  make([]int, len(chunks)),
		config:   cfg,
		analyzer: analyzer,
	}
	copy(idx.chunks, chunks)

	var total int
	for pos, c := range idx.chunks {
		tokens := analyzer.Tokens(c.Text)
		idx.lengths[pos] = len(tokens)
		total += len(tokens)

		freqs := make(map[string]int, len(tokens))
		var order []string
		for _, t := range tokens {
			if freqs[t] == 0 {
				order = append(order, t)
			}
			freqs[t]++
		}
		for _, t := range order {
			idx.postings[t] = append(idx.postings[t], posting{pos: pos, freq: freqs[t]})
		}
	}
	idx.avgLen = float64(total) / float64(len(idx.chunks))

	slog.Debug("lexical_index_built",
		slog.Int("chunks", len(idx.chunks)),
		slog.Int("terms", len(idx.postings)),
		slog.Duration("duration", time.Since(start)))

	return idx, nil
}

// Search returns up to k chunks ranked by BM25 score, highest first. Only
// chunks sharing at least one term with the query are returned. Equal scores
// keep insertion order. k <= 0 means DefaultLexicalK.
func (idx *LexicalIndex) Search(query string, k int) []chunk.Chunk {
	if k <= 0 {
		k = DefaultLexicalK
	}

	terms := idx.analyzer.Tokens(query)
	if len(terms) == 0 {
		return nil
	}

	n := float64(len(idx.chunks))
	scores := make(map[int]float64)
	for _, term := range terms {
		plist := idx.postings[term]
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range plist {
			scores[p.pos] += idf * idx.termWeight(p)
		}
	}
	if len(scores) == 0 {
		return nil
	}

	positions := make([]int, 0, len(scores))
	for pos := range scores {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		si, sj := scores[positions[i]], scores[positions[j]]
		if si != sj {
			return si > sj
		}
		return positions[i] < positions[j]
	})

	if len(positions) > k {
		positions = positions[:k]
	}
	out := make([]chunk.Chunk, len(positions))
	for i, pos := range positions {
		out[i] = idx.chunks[pos]
	}
	return out
}

// termWeight is the saturated, length-normalized term frequency.
func (idx *LexicalIndex) termWeight(p posting) float64 {
	f := float64(p.freq)
	k1, b := idx.config.K1, idx.config.B
	norm := 1 - b
	if idx.avgLen > 0 {
		norm += b * float64(idx.lengths[p.pos]) / idx.avgLen
	}
	return f * (k1 + 1) / (f + k1*norm)
}

// Len returns the number of indexed chunks.
func (idx *LexicalIndex) Len() int {
	return len(idx.chunks)
}

// Stats returns corpus statistics.
func (idx *LexicalIndex) Stats() LexicalStats {
	return LexicalStats{
		Chunks:    len(idx.chunks),
		Terms:     len(idx.postings),
		AvgLength: idx.avgLen,
	}
}
