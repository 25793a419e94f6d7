package knowledge

// chunker.go implements boundary-aware document splitting.
//
// Documents are cut into overlapping chunks of at most chunkSize bytes.
// Split points prefer sentence boundaries, then word boundaries, and only
// fall back to a hard cut when neither exists in the search window.

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default overlap between consecutive chunks.
const DefaultChunkOverlap = 50

// Split cuts a document into ordered, overlapping chunks.
//
// Starting at offset 0, each chunk tentatively ends at start+chunkSize. If
// that reaches the end of the document the final chunk runs to the end.
// Otherwise the split point is searched backward within the last 20% of the
// window for a sentence boundary ('.', '!' or '?' followed by whitespace, or
// a blank line); failing that, the last space before the window end is used;
// failing that, the chunk is cut mid-word at the raw offset. The next chunk
// starts chunkOverlap bytes before the split point, clamped so progress is
// always strictly positive.
//
// An empty document yields no chunks. Chunk indexes are 0-based and
// sequential within the document.
func Split(doc Document, chunkSize, chunkOverlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}

	text := doc.Content
	if len(text) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	index := 0

	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			chunks = append(chunks, newChunk(doc, text[start:], index))
			break
		}

		split := splitPoint(text, start, end, chunkSize)
		chunks = append(chunks, newChunk(doc, text[start:split], index))
		index++

		next := split - chunkOverlap
		if next <= start {
			// Overlap would stall or move backward; drop it for this step.
			next = split
		}
		start = next
	}

	return chunks
}

// splitPoint picks where to cut the chunk [start, end).
func splitPoint(text string, start, end, chunkSize int) int {
	// Sentence boundary within the last 20% of the window.
	windowStart := end - chunkSize/5
	if windowStart <= start {
		windowStart = start + 1
	}
	for i := end - 2; i >= windowStart; i-- {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i+1]) {
			return i + 2
		}
		if c == '\n' && text[i+1] == '\n' {
			return i + 2
		}
	}

	// Last space strictly after start.
	for i := end - 1; i > start; i-- {
		if text[i] == ' ' {
			return i + 1
		}
	}

	// Hard cut mid-word.
	return end
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func newChunk(doc Document, text string, index int) Chunk {
	return Chunk{
		Text:       text,
		Source:     doc.Source,
		Index:      index,
		SourceType: doc.SourceType,
		URL:        doc.URL,
		Metadata: map[string]string{
			"title": doc.Title,
		},
	}
}
