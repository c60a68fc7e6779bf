// Package search owns the retrieval indexes and answers queries over them in
// lexical, semantic or hybrid mode.
package search

import (
	"github.com/Aman-CERP/docrag/internal/chunk"
	"github.com/Aman-CERP/docrag/internal/embed"
	"github.com/Aman-CERP/docrag/internal/store"
)

// DefaultHybridCap is the maximum number of fused hybrid results.
const DefaultHybridCap = 8

// State is the lifecycle of one index handle.
type State int

const (
	// StateUninitialized means no handle has been built or loaded.
	StateUninitialized State = iota
	// StateReady means queries are served from a handle.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// EngineConfig configures retrieval and index builds.
type EngineConfig struct {
	ChunkSize    int
	ChunkOverlap int

	LexicalK  int
	SemanticK int
	HybridCap int

	BM25 store.BM25Config

	// SemanticDir holds the persisted semantic collection.
	SemanticDir string
	Semantic    store.SemanticOptions
}

// DefaultEngineConfig returns the retrieval defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ChunkSize:    chunk.DefaultSize,
		ChunkOverlap: chunk.DefaultOverlap,
		LexicalK:     store.DefaultLexicalK,
		SemanticK:    store.DefaultSemanticK,
		HybridCap:    DefaultHybridCap,
		BM25:         store.DefaultBM25Config(),
		Semantic:     store.DefaultSemanticOptions(),
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.LexicalK <= 0 {
		c.LexicalK = d.LexicalK
	}
	if c.SemanticK <= 0 {
		c.SemanticK = d.SemanticK
	}
	if c.HybridCap <= 0 {
		c.HybridCap = d.HybridCap
	}
	if c.BM25.K1 == 0 && c.BM25.B == 0 {
		c.BM25 = d.BM25
	}
	if c.Semantic.Collection == "" {
		c.Semantic.Collection = d.Semantic.Collection
	}
	return c
}

// Status reports both index states.
type Status struct {
	Lexical        State
	Semantic       State
	LexicalChunks  int
	LexicalTerms   int
	SemanticChunks int
	Collection     string

	// QueryCache is nil when the embedder has no query cache.
	QueryCache *embed.CacheStats
}
