package pgvector

import (
	"context"
	"fmt"
	"time"

	"sight-gateway/pkg/apperror"
	"sight-gateway/pkg/embedding"
	"sight-gateway/pkg/retrieval"

	"github.com/google/uuid"
	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentChunk is one embedded slice of an ingested document.
type DocumentChunk struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FileId     string     `gorm:"type:text;index"`
	Filename   string     `gorm:"type:text"`
	Content    string     `gorm:"type:text"`
	Embedding  pgv.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	ChunkIndex int        `gorm:"default:0"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// Searcher runs similarity search over a local pgvector chunk table, embedding
// the question with the configured embedding provider. Alternative to the
// OpenAI vector store for fully local deployments.
type Searcher struct {
	db                *gorm.DB
	embeddingProvider embedding.EmbeddingProvider
	topK              int
}

var _ retrieval.Searcher = &Searcher{}

func NewSearcher(db *gorm.DB, embeddingProvider embedding.EmbeddingProvider, topK int) *Searcher {
	return &Searcher{
		db:                db,
		embeddingProvider: embeddingProvider,
		topK:              topK,
	}
}

func (s *Searcher) Search(ctx context.Context, question string) ([]retrieval.Hit, error) {
	embeddingRes, err := s.embeddingProvider.Generate(ctx, question)
	if err != nil {
		return nil, apperror.NewUpstreamError("retrieval", fmt.Errorf("embedding generation failed: %w", err))
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity,
	// so 1 - (embedding <=> query_vector) = cosine_similarity.
	type result struct {
		DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgv.NewVector(embeddingRes.Embedding.Values)

	err = s.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(s.topK).
		Scan(&results).Error
	if err != nil {
		return nil, apperror.NewUpstreamError("retrieval", err)
	}

	hits := make([]retrieval.Hit, 0, len(results))
	for _, res := range results {
		score := res.Similarity
		fileId := res.FileId
		hits = append(hits, retrieval.Hit{
			Filename: res.Filename,
			FileId:   &fileId,
			Score:    &score,
			Text:     res.Content,
		})
	}
	return hits, nil
}
