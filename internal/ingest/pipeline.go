package ingest

import (
	"context"
	"fmt"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// embedBatchSize bounds how many chunk texts go to the embedding API in
// one request.
const embedBatchSize = 100

type chunkWriter interface {
	AddChunks(ctx context.Context, chunks []knowledge.Chunk, embeddings [][]float32) error
	DeleteAll(ctx context.Context) error
}

type batchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Documents int
	Chunks    int
}

// Indexer chunks documents, embeds the chunks, and writes them to the
// knowledge store. Chunk IDs are content-derived, so re-indexing unchanged
// documents is an idempotent upsert.
type Indexer struct {
	store        chunkWriter
	embedder     batchEmbedder
	chunkSize    int
	chunkOverlap int
	logger       log.Logger
}

// NewIndexer creates an indexer. Non-positive chunking parameters fall
// back to the package defaults.
func NewIndexer(store chunkWriter, embedder batchEmbedder, chunkSize, chunkOverlap int, logger log.Logger) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if chunkSize <= 0 {
		chunkSize = knowledge.DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = knowledge.DefaultChunkOverlap
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}, nil
}

// Index chunks and embeds docs, then upserts the chunks into the store.
func (i *Indexer) Index(ctx context.Context, docs []knowledge.Document) (IndexResult, error) {
	var all []knowledge.Chunk
	for _, doc := range docs {
		all = append(all, knowledge.Split(doc, i.chunkSize, i.chunkOverlap)...)
	}
	if len(all) == 0 {
		return IndexResult{Documents: len(docs)}, nil
	}

	for start := 0; start < len(all); start += embedBatchSize {
		end := min(start+embedBatchSize, len(all))
		batch := all[start:end]

		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Text
		}

		embeddings, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return IndexResult{}, fmt.Errorf("embedding chunks: %w", err)
		}
		if err := i.store.AddChunks(ctx, batch, embeddings); err != nil {
			return IndexResult{}, fmt.Errorf("storing chunks: %w", err)
		}
		i.logger.Debug("indexed chunk batch", "from", start, "to", end, "total", len(all))
	}

	i.logger.Info("indexing complete", "documents", len(docs), "chunks", len(all))
	return IndexResult{Documents: len(docs), Chunks: len(all)}, nil
}

// Reindex clears the store before indexing, rebuilding the knowledge base
// from scratch.
func (i *Indexer) Reindex(ctx context.Context, docs []knowledge.Document) (IndexResult, error) {
	if err := i.store.DeleteAll(ctx); err != nil {
		return IndexResult{}, fmt.Errorf("clearing knowledge base: %w", err)
	}
	i.logger.Info("cleared knowledge base for reindex")
	return i.Index(ctx, docs)
}
