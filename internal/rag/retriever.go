// Package rag retrieves knowledge-base context for the agent pipeline.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// NoResultsSentinel is the exact context string produced when retrieval
// yields no chunks. Downstream components compare against it to detect the
// empty-knowledge case, so it must never change casually.
const NoResultsSentinel = "No relevant information found in the knowledge base."

// Default retrieval parameters.
const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.1
)

// vectorSearcher is the slice of the chunk store the retriever needs.
type vectorSearcher interface {
	Search(ctx context.Context, embedding []float32, opts ...knowledge.SearchOption) ([]knowledge.SearchResult, error)
}

// textEmbedder embeds a single query string.
type textEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds queries and searches the chunk store, producing formatted
// context for synthesis.
type Retriever struct {
	store     vectorSearcher
	embedder  textEmbedder
	topK      int
	threshold float32
	logger    log.Logger
}

// Config holds retriever tuning parameters. Zero values fall back to the
// package defaults.
type Config struct {
	TopK           int
	ScoreThreshold float32
}

// NewRetriever creates a Retriever over the given store and embedder.
func NewRetriever(store vectorSearcher, embedder textEmbedder, cfg Config, logger log.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = DefaultScoreThreshold
	}
	return &Retriever{
		store:     store,
		embedder:  embedder,
		topK:      cfg.TopK,
		threshold: cfg.ScoreThreshold,
		logger:    logger,
	}, nil
}

// Search embeds the query and returns the matching chunks ordered by
// descending similarity. Results below the score threshold are excluded.
func (r *Retriever) Search(ctx context.Context, query string) ([]knowledge.SearchResult, error) {
	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.store.Search(ctx, vec,
		knowledge.WithTopK(r.topK),
		knowledge.WithMinScore(r.threshold))
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}

	r.logger.Debug("retrieval complete", "query_len", len(query), "results", len(results))
	return results, nil
}

// Retrieve runs Search and formats the results into synthesis context.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, []knowledge.SearchResult, error) {
	results, err := r.Search(ctx, query)
	if err != nil {
		return "", nil, err
	}
	return FormatResults(results), results, nil
}

// FormatResults renders search results into the context block consumed by
// synthesis. Each chunk is prefixed with a source header; an empty result
// set yields the no-results sentinel.
func FormatResults(results []knowledge.SearchResult) string {
	if len(results) == 0 {
		return NoResultsSentinel
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		header := fmt.Sprintf("[Source: %s | Type: %s]", r.Chunk.Source, r.Chunk.SourceType)
		if r.Chunk.URL != "" {
			header += fmt.Sprintf(" [URL: %s]", r.Chunk.URL)
		}
		blocks[i] = header + "\n" + r.Chunk.Text
	}

	return strings.Join(blocks, "\n\n---\n\n")
}
