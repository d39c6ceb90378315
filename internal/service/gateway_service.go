package service

import (
	"context"
	"encoding/json"
	"time"

	"sight-gateway/internal/config"
	"sight-gateway/internal/dto"
	"sight-gateway/internal/pkg/logger"
	"sight-gateway/pkg/completion"
	"sight-gateway/pkg/rag/conversation"
	"sight-gateway/pkg/rag/prompt"
	"sight-gateway/pkg/rag/sources"
	"sight-gateway/pkg/retrieval"

	"github.com/google/uuid"
)

// IGatewayService defines the query gateway service interface
type IGatewayService interface {
	Answer(ctx context.Context, request *dto.QueryRequest) (*dto.AnswerResponse, error)
	Stream(ctx context.Context, request *dto.QueryRequest) (*StreamHandle, error)
}

// StreamHandle is a live streaming session. Events yields dto.TokenEvent
// values followed by exactly one dto.DoneEvent, or a dto.ErrorEvent if the
// backend stream fails mid-flight; the channel closes after the terminal
// event.
type StreamHandle struct {
	ConversationId string
	Events         <-chan interface{}
}

// gatewayService composes the retrieval-to-prompt pipeline with the
// completion backend in synchronous or streaming mode.
type gatewayService struct {
	cfg                 *config.Config
	searcher            retrieval.Searcher
	completionProvider  completion.Provider
	conversationManager *conversation.Manager
	publisherService    IPublisherService
	logger              logger.ILogger
}

func NewGatewayService(
	cfg *config.Config,
	searcher retrieval.Searcher,
	completionProvider completion.Provider,
	conversationManager *conversation.Manager,
	publisherService IPublisherService,
	log logger.ILogger,
) IGatewayService {
	return &gatewayService{
		cfg:                 cfg,
		searcher:            searcher,
		completionProvider:  completionProvider,
		conversationManager: conversationManager,
		publisherService:    publisherService,
		logger:              log,
	}
}

// preparePrompt runs the shared front half of both modes: retrieval, source
// formatting, conversation resolution and prompt assembly.
func (s *gatewayService) preparePrompt(ctx context.Context, request *dto.QueryRequest) (*completion.Request, string, error) {
	hits, err := s.searcher.Search(ctx, request.Question)
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("gateway", "Retrieved hits", map[string]interface{}{
		"count": len(hits),
	})

	sourcesBlock := sources.Format(hits, s.cfg.Search.MaxCharsPerContent)

	conversationId, err := s.conversationManager.Resolve(ctx, request.ConversationId)
	if err != nil {
		return nil, "", err
	}

	promptText := prompt.Build(sourcesBlock, request.Question)

	return &completion.Request{
		Model:           s.cfg.Model.Model,
		Input:           []completion.Message{{Role: "user", Content: promptText}},
		Conversation:    conversationId,
		ReasoningEffort: s.cfg.Model.ReasoningEffort,
		MaxOutputTokens: s.cfg.Model.MaxTokens,
	}, conversationId, nil
}

// Answer handles a synchronous query and returns the final answer with the
// resolved conversation id.
func (s *gatewayService) Answer(ctx context.Context, request *dto.QueryRequest) (*dto.AnswerResponse, error) {
	started := time.Now()

	completionReq, conversationId, err := s.preparePrompt(ctx, request)
	if err != nil {
		return nil, err
	}

	answer, err := s.completionProvider.Create(ctx, completionReq)
	if err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, conversationId, "query", len(answer), time.Since(started))

	return &dto.AnswerResponse{
		Answer:         answer,
		ConversationId: conversationId,
	}, nil
}

// Stream handles a streaming query. Failures before the backend stream opens
// are returned as an error so the transport can still answer with an HTTP
// status; once the handle is returned, failures travel inside the event
// sequence.
func (s *gatewayService) Stream(ctx context.Context, request *dto.QueryRequest) (*StreamHandle, error) {
	started := time.Now()

	completionReq, conversationId, err := s.preparePrompt(ctx, request)
	if err != nil {
		return nil, err
	}
	// Persist the exchange server-side so the conversation keeps this turn.
	completionReq.Store = true

	chunks, err := s.completionProvider.Stream(ctx, completionReq)
	if err != nil {
		return nil, err
	}

	events := make(chan interface{})
	go func() {
		defer close(events)

		var fullText string
		for chunk := range chunks {
			if chunk.Err != nil {
				s.logger.Error("gateway", "Backend stream failed", map[string]interface{}{
					"conversation_id": conversationId,
					"error":           chunk.Err.Error(),
				})
				s.emit(ctx, events, dto.ErrorEvent{
					Type:    dto.StreamEventError,
					Message: chunk.Err.Error(),
				})
				return
			}
			fullText += chunk.Delta
			if !s.emit(ctx, events, dto.TokenEvent{
				Type:  dto.StreamEventToken,
				Token: chunk.Delta,
			}) {
				return
			}
		}

		s.emit(ctx, events, dto.DoneEvent{
			Type:           dto.StreamEventDone,
			Answer:         fullText,
			ConversationId: conversationId,
		})
		s.publishCompleted(ctx, conversationId, "stream", len(fullText), time.Since(started))
	}()

	return &StreamHandle{
		ConversationId: conversationId,
		Events:         events,
	}, nil
}

func (s *gatewayService) emit(ctx context.Context, events chan<- interface{}, event interface{}) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}

func (s *gatewayService) publishCompleted(ctx context.Context, conversationId, mode string, answerChars int, duration time.Duration) {
	msgPayload := dto.PublishQueryCompletedMessage{
		EventId:        uuid.New(),
		ConversationId: conversationId,
		Mode:           mode,
		AnswerChars:    answerChars,
		DurationMs:     duration.Milliseconds(),
		OccurredAt:     time.Now(),
	}

	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		s.logger.Warn("gateway", "Failed to marshal audit event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	// Audit publishing is best-effort; a bus failure never fails the request.
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		s.logger.Warn("gateway", "Failed to publish audit event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
