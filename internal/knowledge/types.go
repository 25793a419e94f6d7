package knowledge

// SourceType categorizes where a document came from.
type SourceType string

// Source type constants for knowledge documents.
const (
	// SourceTypeNote represents a local note file.
	SourceTypeNote SourceType = "note"

	// SourceTypeBookmark represents a synced browser bookmark.
	SourceTypeBookmark SourceType = "bookmark"
)

// Document is a loaded document with source metadata.
// Documents are produced by the ingest loaders and consumed once by the
// chunker; they are never stored as-is.
type Document struct {
	Content    string
	Source     string // file path for notes, URL for bookmarks
	Title      string
	SourceType SourceType
	URL        string // set for bookmarks only
}

// Chunk is a bounded-length contiguous slice of a document's text, tagged
// with its originating source and 0-based position within that source.
type Chunk struct {
	Text       string
	Source     string
	Index      int
	SourceType SourceType
	URL        string
	Metadata   map[string]string
}

// SearchResult is a single result from vector search. Result lists are
// always ordered by descending similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}
