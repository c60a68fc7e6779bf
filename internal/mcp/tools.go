package mcp

// RetrieveInput is the input of the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the natural-language query"`
	Mode  string `json:"mode,omitempty" jsonschema:"retrieval mode: lexical, semantic or hybrid (default hybrid)"`
}

// RetrieveOutput is the output of the retrieve tool.
type RetrieveOutput struct {
	Mode    string        `json:"mode"`
	Results []ChunkOutput `json:"results" jsonschema:"retrieved chunks, best first"`
}

// ChunkOutput is one retrieved chunk with its provenance.
type ChunkOutput struct {
	ID     string `json:"id"`
	Source string `json:"source" jsonschema:"document the chunk was cut from"`
	Index  int    `json:"index" jsonschema:"ordinal of the chunk within its document"`
	Text   string `json:"text"`
}

// AskInput is the input of the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the documents"`
	Mode     string `json:"mode,omitempty" jsonschema:"retrieval mode: lexical, semantic or hybrid (default hybrid)"`
}

// AskOutput is the output of the ask tool.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Context   []string `json:"context" jsonschema:"chunks the answer was generated from"`
	Sources   []string `json:"sources"`
	LatencyMs float64  `json:"latency_ms"`
	Mode      string   `json:"mode"`
}

// IndexStatusInput is the (empty) input of the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput reports both index states.
type IndexStatusOutput struct {
	Lexical        string `json:"lexical" jsonschema:"ready or uninitialized"`
	Semantic       string `json:"semantic" jsonschema:"ready or uninitialized"`
	LexicalChunks  int    `json:"lexical_chunks"`
	LexicalTerms   int    `json:"lexical_terms"`
	SemanticChunks int    `json:"semantic_chunks"`
	Collection     string `json:"collection"`
	CacheHits      int64  `json:"query_cache_hits,omitempty"`
	CacheMisses    int64  `json:"query_cache_misses,omitempty"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "retrieve",
		Description: "Retrieve the document chunks most relevant to a query. Modes: lexical (BM25 keywords), semantic (embeddings) or hybrid (both, deduplicated).",
	},
	{
		Name:        "ask",
		Description: "Answer a question strictly from the indexed documents. Returns the answer with the context chunks and their sources.",
	},
	{
		Name:        "index_status",
		Description: "Report whether the lexical and semantic indexes are ready and how many chunks each holds.",
	},
}
