package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sight-gateway/internal/dto"
	"sight-gateway/internal/pkg/logger"
	"sight-gateway/internal/repository/memory"
)

func TestConsumeIncrementsTurns(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	repo := memory.NewConversationRepository()
	consumer := NewConsumerService(pubSub, "QUERY_COMPLETED", repo, logger.NewNopLogger())
	publisher := NewPublisherService(pubSub, "QUERY_COMPLETED")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	payload, err := json.Marshal(dto.PublishQueryCompletedMessage{
		EventId:        uuid.New(),
		ConversationId: "conv_1",
		Mode:           "query",
		AnswerChars:    42,
		DurationMs:     120,
		OccurredAt:     time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(ctx, payload))
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		record, found := repo.Get("conv_1")
		return found && record.Turns == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumeSkipsInvalidPayload(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	repo := memory.NewConversationRepository()
	consumer := NewConsumerService(pubSub, "QUERY_COMPLETED", repo, logger.NewNopLogger())
	publisher := NewPublisherService(pubSub, "QUERY_COMPLETED")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	require.NoError(t, publisher.Publish(ctx, []byte("not json")))

	valid, err := json.Marshal(dto.PublishQueryCompletedMessage{
		EventId:        uuid.New(),
		ConversationId: "conv_after_garbage",
		Mode:           "stream",
		OccurredAt:     time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, valid))

	// The invalid message is acked and skipped; the valid one still lands.
	assert.Eventually(t, func() bool {
		record, found := repo.Get("conv_after_garbage")
		return found && record.Turns == 1
	}, 2*time.Second, 10*time.Millisecond)
}
