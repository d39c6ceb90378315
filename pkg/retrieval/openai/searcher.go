package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sight-gateway/pkg/apperror"
	"sight-gateway/pkg/retrieval"
)

// Searcher queries an OpenAI vector store with file search and normalizes the
// raw result records into retrieval.Hit values.
type Searcher struct {
	BaseURL       string
	APIKey        string
	VectorStoreId string
	TopK          int
	Client        *http.Client
}

var _ retrieval.Searcher = &Searcher{}

func NewSearcher(baseURL, apiKey, vectorStoreId string, topK int) *Searcher {
	return &Searcher{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		VectorStoreId: vectorStoreId,
		TopK:          topK,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type searchRequest struct {
	Query         string `json:"query"`
	RewriteQuery  bool   `json:"rewrite_query"`
	MaxNumResults int    `json:"max_num_results"`
}

type searchResponse struct {
	Data []searchResult `json:"data"`
}

type searchResult struct {
	FileId   *string         `json:"file_id"`
	Filename string          `json:"filename"`
	Score    *float64        `json:"score"`
	Content  []searchContent `json:"content"`
}

type searchContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Search runs file search against the configured vector store. The query is
// passed through verbatim (rewrite_query=false), capped at TopK results.
func (s *Searcher) Search(ctx context.Context, question string) ([]retrieval.Hit, error) {
	// Checked before any network call.
	if s.VectorStoreId == "" {
		return nil, apperror.NewConfigurationError("OPENAI_VECTOR_STORE_ID", "is not set")
	}

	payload := searchRequest{
		Query:         question,
		RewriteQuery:  false,
		MaxNumResults: s.TopK,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/vector_stores/%s/search", s.BaseURL, s.VectorStoreId)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, apperror.NewUpstreamError("retrieval", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewUpstreamError("retrieval", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.NewUpstreamError("retrieval",
			fmt.Errorf("vector store search: status %d, body: %s", resp.StatusCode, string(bodyBytes)))
	}

	var searchRes searchResponse
	if err := json.Unmarshal(bodyBytes, &searchRes); err != nil {
		return nil, apperror.NewUpstreamError("retrieval", fmt.Errorf("unmarshal response: %w", err))
	}

	hits := make([]retrieval.Hit, 0, len(searchRes.Data))
	for _, r := range searchRes.Data {
		// Only text-typed fragments contribute; images and other content
		// kinds are skipped.
		texts := make([]string, 0, len(r.Content))
		for _, c := range r.Content {
			if c.Type == "text" {
				texts = append(texts, c.Text)
			}
		}
		hits = append(hits, retrieval.Hit{
			Filename: r.Filename,
			FileId:   r.FileId,
			Score:    r.Score,
			Text:     strings.Join(texts, " "),
		})
	}
	return hits, nil
}
