package search

import (
	"strings"

	"github.com/Aman-CERP/docrag/internal/chunk"
)

// Fuse concatenates a then b, drops chunks whose trimmed text was already
// seen, and truncates to limit. limit <= 0 means DefaultHybridCap.
func Fuse(a, b []chunk.Chunk, limit int) []chunk.Chunk {
	if limit <= 0 {
		limit = DefaultHybridCap
	}

	// Empty slice, not nil, for consistent JSON output.
	out := make([]chunk.Chunk, 0, min(len(a)+len(b), limit))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]chunk.Chunk{a, b} {
		for _, c := range list {
			if len(out) == limit {
				return out
			}
			key := strings.TrimSpace(c.Text)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
