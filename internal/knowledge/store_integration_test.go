package knowledge_test

import (
	"context"
	"testing"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
	"github.com/secondbrainhq/secondbrain/internal/testutil"
)

// unitVector returns a 768-dim unit vector along the given axis.
func unitVector(axis int) []float32 {
	v := make([]float32, knowledge.EmbeddingDimensions)
	v[axis] = 1
	return v
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store, err := knowledge.NewStore(testDB.Pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	chunks := []knowledge.Chunk{
		{Text: "Go concurrency patterns", Source: "notes/go.md", Index: 0, SourceType: knowledge.SourceTypeNote},
		{Text: "Sourdough starter care", Source: "notes/bread.md", Index: 0, SourceType: knowledge.SourceTypeNote},
	}
	embeddings := [][]float32{unitVector(0), unitVector(1)}

	if err := store.AddChunks(ctx, chunks, embeddings); err != nil {
		t.Fatalf("AddChunks() error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("Count() = %d, want 2", count)
	}

	// Re-adding identical chunks must not create new rows.
	if err := store.AddChunks(ctx, chunks, embeddings); err != nil {
		t.Fatalf("AddChunks() re-run error: %v", err)
	}
	count, _ = store.Count(ctx)
	if count != 2 {
		t.Errorf("Count() after re-index = %d, want 2", count)
	}

	// A query aligned with the first chunk's embedding should rank it first
	// and drop the orthogonal chunk below the score floor.
	results, err := store.Search(ctx, unitVector(0),
		knowledge.WithTopK(5), knowledge.WithMinScore(0.1))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	if results[0].Chunk.Source != "notes/go.md" {
		t.Errorf("top result source = %q, want notes/go.md", results[0].Chunk.Source)
	}
	if results[0].Score < 0.99 {
		t.Errorf("top result score = %f, want ~1.0", results[0].Score)
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	count, _ = store.Count(ctx)
	if count != 0 {
		t.Errorf("Count() after DeleteAll = %d, want 0", count)
	}
}
