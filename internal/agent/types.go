// Package agent implements the query pipeline: guard, retrieve, synthesize,
// guard, citation filter.
package agent

import "github.com/secondbrainhq/secondbrain/internal/knowledge"

// Verdict is a guard decision on a query or answer.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// SourceRef is a citation claimed by the synthesizer. Titles may be
// shortened or reformatted by the model; citation filtering tolerates that.
type SourceRef struct {
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	URL        string `json:"url,omitempty"`
}

// Response is the synthesizer's structured output.
type Response struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// QueryResult is the final outcome of one question. Sources are ordered by
// descending retrieval score and already citation-filtered on the success
// path. Never mutated after construction.
type QueryResult struct {
	Answer  string
	Sources []knowledge.SearchResult
}

// Turn is one question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}
