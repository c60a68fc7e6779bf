// Package store provides the two retrieval indexes: an in-memory BM25 lexical
// index and a semantic index persisted in SQLite with an HNSW graph on top.
// Index handles are immutable once returned and safe for concurrent queries.
package store

import "time"

// Retrieval defaults.
const (
	DefaultLexicalK  = 5
	DefaultSemanticK = 5

	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "oss_rag_docs"

	// DatabaseName is the SQLite file inside the semantic index directory.
	DatabaseName = "semantic.db"
)

// Distance metrics for the semantic index.
const (
	MetricCosine = "cos"
	MetricL2     = "l2"
)

// BM25Config configures BM25 scoring.
type BM25Config struct {
	K1 float64 // Term frequency saturation (default: 1.2)
	B  float64 // Length normalization (default: 0.75)
}

// DefaultBM25Config returns the standard BM25 parameters.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.2, B: 0.75}
}

// SemanticOptions configures semantic index build, load and search.
type SemanticOptions struct {
	// Collection names the record set inside the database.
	Collection string

	// Metric is "cos" (default) or "l2". Only used at build time; a loaded
	// collection keeps the metric it was built with.
	Metric string

	// Graph tuning.
	M        int
	EfSearch int
	Seed     int64

	// ExactThreshold is the record count below which search scans every
	// vector instead of walking the graph.
	ExactThreshold int

	// Overfetch multiplies k for graph candidates that are re-ranked exactly.
	Overfetch int

	// BatchSize and Workers control embedding fan-out during build.
	BatchSize int
	Workers   int
}

// DefaultSemanticOptions returns the defaults used when options are zero.
func DefaultSemanticOptions() SemanticOptions {
	return SemanticOptions{
		Collection:     DefaultCollection,
		Metric:         MetricCosine,
		M:              16,
		EfSearch:       64,
		Seed:           1,
		ExactThreshold: 4096,
		Overfetch:      4,
		BatchSize:      32,
		Workers:        4,
	}
}

func (o SemanticOptions) withDefaults() SemanticOptions {
	d := DefaultSemanticOptions()
	if o.Collection == "" {
		o.Collection = d.Collection
	}
	if o.Metric == "" {
		o.Metric = d.Metric
	}
	if o.M <= 0 {
		o.M = d.M
	}
	if o.EfSearch <= 0 {
		o.EfSearch = d.EfSearch
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	if o.ExactThreshold <= 0 {
		o.ExactThreshold = d.ExactThreshold
	}
	if o.Overfetch <= 0 {
		o.Overfetch = d.Overfetch
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}

// LexicalStats describes a built lexical index.
type LexicalStats struct {
	Chunks    int
	Terms     int
	AvgLength float64
}

// CollectionInfo describes a persisted semantic collection.
type CollectionInfo struct {
	Name       string
	Dimensions int
	Metric     string
	Model      string
	Count      int
	CreatedAt  time.Time
}
