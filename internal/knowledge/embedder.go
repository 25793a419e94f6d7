package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// EmbeddingDimensions is the dimensionality requested from the embedding
// model. Stored vectors and query vectors must match it; the chunks table
// column is typed vector(768).
const EmbeddingDimensions = 768

// Embedder produces fixed-dimension embeddings for chunk and query text.
type Embedder struct {
	embedder ai.Embedder
}

// NewEmbedder wraps a genkit embedder.
func NewEmbedder(embedder ai.Embedder) *Embedder {
	return &Embedder{embedder: embedder}
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds a batch of texts, preserving order. An empty batch
// returns an empty result without calling the model.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	dim := int32(EmbeddingDimensions)
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: docs,
		Options: &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vecs[i] = emb.Embedding
	}
	return vecs, nil
}
