package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings.
// Only the pgvector search backend needs one; the OpenAI vector store embeds
// queries server-side.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) (*EmbeddingResponse, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding
}

type EmbeddingResponseEmbedding struct {
	Values []float32
}
