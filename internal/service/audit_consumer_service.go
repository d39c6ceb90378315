package service

import (
	"context"
	"encoding/json"

	"sight-gateway/internal/dto"
	"sight-gateway/internal/pkg/logger"
	"sight-gateway/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains query-completed audit events, maintaining the
// per-conversation turn counters and the usage log.
type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	conversationRepo *memory.ConversationRepository
	logger           logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	conversationRepo *memory.ConversationRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		conversationRepo: conversationRepo,
		logger:           log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.PublishQueryCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("audit", "Failed to unmarshal audit event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.conversationRepo.IncrementTurns(payload.ConversationId)

	turns := 0
	if record, found := cs.conversationRepo.Get(payload.ConversationId); found {
		turns = record.Turns
	}

	cs.logger.Info("audit", "Query completed", map[string]interface{}{
		"conversation_id": payload.ConversationId,
		"mode":            payload.Mode,
		"answer_chars":    payload.AnswerChars,
		"duration_ms":     payload.DurationMs,
		"turns":           turns,
	})

	msg.Ack()
}
