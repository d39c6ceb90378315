package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sight-gateway/pkg/apperror"
	"sight-gateway/pkg/completion"
)

// Provider talks to the OpenAI Responses and Conversations APIs.
type Provider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var (
	_ completion.Provider          = &Provider{}
	_ completion.ConversationStore = &Provider{}
)

func NewProvider(baseURL, apiKey string) *Provider {
	return &Provider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			// Generation can run long; streaming reads are bounded by the
			// request context, not this timeout.
			Timeout: 300 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type responsesRequest struct {
	Model           string               `json:"model"`
	Input           []completion.Message `json:"input"`
	Conversation    string               `json:"conversation,omitempty"`
	Reasoning       *reasoningConfig     `json:"reasoning,omitempty"`
	MaxOutputTokens int                  `json:"max_output_tokens,omitempty"`
	Stream          bool                 `json:"stream,omitempty"`
	Store           bool                 `json:"store,omitempty"`
}

type reasoningConfig struct {
	Effort string `json:"effort"`
}

type responsesResponse struct {
	Output []outputItem `json:"output"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Content []outputContent `json:"content"`
}

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type conversationRequest struct {
	Items []completion.Message `json:"items"`
}

type conversationResponse struct {
	Id string `json:"id"`
}

// --- Interface Implementation ---

func (p *Provider) Create(ctx context.Context, req *completion.Request) (string, error) {
	payload := responsesRequest{
		Model:           req.Model,
		Input:           req.Input,
		Conversation:    req.Conversation,
		Reasoning:       &reasoningConfig{Effort: req.ReasoningEffort},
		MaxOutputTokens: req.MaxOutputTokens,
		Store:           req.Store,
	}

	bodyBytes, err := p.post(ctx, "/responses", payload)
	if err != nil {
		return "", err
	}

	var res responsesResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", apperror.NewUpstreamError("completion", fmt.Errorf("unmarshal response: %w", err))
	}

	// Concatenate the output_text fragments of all message items; an empty
	// output is a valid (empty) answer, not an error.
	var b strings.Builder
	for _, item := range res.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String(), nil
}

func (p *Provider) Stream(ctx context.Context, req *completion.Request) (<-chan completion.StreamChunk, error) {
	payload := responsesRequest{
		Model:           req.Model,
		Input:           req.Input,
		Conversation:    req.Conversation,
		Reasoning:       &reasoningConfig{Effort: req.ReasoningEffort},
		MaxOutputTokens: req.MaxOutputTokens,
		Stream:          true,
		Store:           req.Store,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/responses", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, apperror.NewUpstreamError("completion", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, apperror.NewUpstreamError("completion",
			fmt.Errorf("stream open: status %d, body: %s", resp.StatusCode, string(errBody)))
	}

	return streamSSE(ctx, resp.Body), nil
}

// streamSSE drains an OpenAI event stream, forwarding only output-text deltas.
// Every other event kind is skipped, except terminal failures which surface as
// an error chunk. The body is closed on every exit path.
func streamSSE(ctx context.Context, body io.ReadCloser) <-chan completion.StreamChunk {
	ch := make(chan completion.StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)
		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					emit(ctx, ch, completion.StreamChunk{
						Err: apperror.NewUpstreamError("completion", err),
					})
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				emit(ctx, ch, completion.StreamChunk{
					Err: apperror.NewUpstreamError("completion", fmt.Errorf("unmarshal event: %w", err)),
				})
				return
			}

			switch event.Type {
			case "response.output_text.delta":
				if !emit(ctx, ch, completion.StreamChunk{Delta: event.Delta}) {
					return
				}
			case "response.failed", "error":
				msg := "response failed"
				if event.Error != nil {
					msg = event.Error.Message
				}
				emit(ctx, ch, completion.StreamChunk{
					Err: apperror.NewUpstreamError("completion", fmt.Errorf("%s", msg)),
				})
				return
			case "response.completed":
				return
			}
		}
	}()
	return ch
}

func emit(ctx context.Context, ch chan<- completion.StreamChunk, chunk completion.StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- chunk:
		return true
	}
}

func (p *Provider) CreateConversation(ctx context.Context, items []completion.Message) (string, error) {
	bodyBytes, err := p.post(ctx, "/conversations", conversationRequest{Items: items})
	if err != nil {
		return "", err
	}

	var res conversationResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", apperror.NewUpstreamError("completion", fmt.Errorf("unmarshal response: %w", err))
	}
	if res.Id == "" {
		return "", apperror.NewUpstreamError("completion", fmt.Errorf("conversation create returned no id"))
	}
	return res.Id, nil
}

func (p *Provider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, apperror.NewUpstreamError("completion", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewUpstreamError("completion", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.NewUpstreamError("completion",
			fmt.Errorf("openai error: status %d, body: %s", resp.StatusCode, string(bodyBytes)))
	}
	return bodyBytes, nil
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
}
