package chunk

// Chunking defaults, in runes.
const (
	DefaultSize    = 800
	DefaultOverlap = 200
)

// Document is a named blob of raw text loaded from the corpus.
type Document struct {
	Source string // File path the text was read from
	Text   string
}

// Chunk is a retrievable unit of content: a contiguous substring of a Document.
type Chunk struct {
	ID     string // SHA256(source:start:end)[:16]
	Source string // Provenance, copied from the Document
	Text   string
	Index  int // Ordinal within its document
	Start  int // Rune offset into the document text, inclusive
	End    int // Rune offset, exclusive
}
