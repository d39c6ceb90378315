package retrieval

import "context"

// Hit is one retrieval result normalized to a uniform shape, regardless of
// which backend produced it. Lives only for the duration of one request.
type Hit struct {
	Filename string
	FileId   *string
	Score    *float64
	Text     string
}

// Searcher defines the contract for any retrieval backend.
type Searcher interface {
	// Search runs a similarity search for the question and returns ranked hits.
	Search(ctx context.Context, question string) ([]Hit, error)
}
