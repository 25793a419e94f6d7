package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/secondbrainhq/secondbrain/internal/log"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// upsertChunkSQL writes a chunk idempotently. Chunk IDs are derived from
// content, so re-indexing an unchanged document is a no-op update.
const upsertChunkSQL = `INSERT INTO chunks (id, content, source, chunk_index, source_type, url, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		source = EXCLUDED.source,
		chunk_index = EXCLUDED.chunk_index,
		source_type = EXCLUDED.source_type,
		url = EXCLUDED.url,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding,
		updated_at = now()`

// searchChunksSQL ranks chunks by cosine similarity against the query vector.
// Scores below the minimum are excluded in SQL so LIMIT applies after the cut.
const searchChunksSQL = `SELECT content, source, chunk_index, source_type, url, metadata,
		1 - (embedding <=> $1) AS score
	FROM chunks
	WHERE 1 - (embedding <=> $1) >= $2
	ORDER BY embedding <=> $1
	LIMIT $3`

// Store persists document chunks and their embeddings in PostgreSQL with
// pgvector. Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger log.Logger
}

// NewStore creates a chunk Store.
func NewStore(db querier, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// ChunkID derives the stable identifier for a chunk from its source, its
// position within the source, and its text. Unchanged chunks keep the same
// ID across indexing runs.
func ChunkID(c Chunk) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%s", c.Source, c.Index, c.Text))
	return hex.EncodeToString(sum[:])
}

// AddChunks upserts chunks with their embeddings. Chunks and embeddings are
// parallel slices; a length mismatch is an error before any write happens.
func (s *Store) AddChunks(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for chunk %d of %s: %w", chunk.Index, chunk.Source, err)
		}

		_, err = s.db.Exec(ctx, upsertChunkSQL,
			ChunkID(chunk),
			chunk.Text,
			chunk.Source,
			chunk.Index,
			string(chunk.SourceType),
			chunk.URL,
			metadata,
			pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("upserting chunk %d of %s: %w", chunk.Index, chunk.Source, err)
		}
	}

	s.logger.Debug("chunks stored", "count", len(chunks))
	return nil
}

// SearchOption adjusts a Search call.
type SearchOption func(*searchParams)

type searchParams struct {
	topK     int
	minScore float32
}

// WithTopK caps the number of results.
func WithTopK(k int) SearchOption {
	return func(p *searchParams) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithMinScore excludes results whose similarity score is below min.
func WithMinScore(min float32) SearchOption {
	return func(p *searchParams) {
		p.minScore = min
	}
}

// Search returns the chunks most similar to the query embedding, ordered by
// descending cosine similarity.
func (s *Store) Search(ctx context.Context, embedding []float32, opts ...SearchOption) ([]SearchResult, error) {
	params := searchParams{topK: 5}
	for _, opt := range opts {
		opt(&params)
	}

	rows, err := s.db.Query(ctx, searchChunksSQL,
		pgvector.NewVector(embedding), params.minScore, params.topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r        SearchResult
			srcType  string
			metadata []byte
		)
		if err := rows.Scan(&r.Chunk.Text, &r.Chunk.Source, &r.Chunk.Index,
			&srcType, &r.Chunk.URL, &metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Chunk.SourceType = SourceType(srcType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &r.Chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteAll removes every stored chunk. Used by full reindexing.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	s.logger.Info("knowledge base cleared")
	return nil
}
