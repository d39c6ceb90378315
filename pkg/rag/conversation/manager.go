package conversation

import (
	"context"
	"strings"
	"time"

	"sight-gateway/internal/pkg/logger"
	"sight-gateway/internal/repository/memory"
	"sight-gateway/pkg/completion"
)

// Manager decides whether to reuse a caller-supplied conversation handle or
// create a fresh one on the completion backend.
type Manager struct {
	store              completion.ConversationStore
	repo               *memory.ConversationRepository
	systemInstructions string
	logger             logger.ILogger
}

func NewManager(
	store completion.ConversationStore,
	repo *memory.ConversationRepository,
	systemInstructions string,
	log logger.ILogger,
) *Manager {
	return &Manager{
		store:              store,
		repo:               repo,
		systemInstructions: systemInstructions,
		logger:             log,
	}
}

// Resolve returns the conversation reference for this request. A non-empty
// supplied id is reused verbatim without validation; an invalid handle
// surfaces later from the completion backend. An empty id triggers exactly one
// conversation-create call, seeded with the trimmed system instructions.
func (m *Manager) Resolve(ctx context.Context, suppliedId string) (string, error) {
	if suppliedId != "" {
		_, known := m.repo.Get(suppliedId)
		m.logger.Debug("conversation", "Reusing supplied conversation", map[string]interface{}{
			"conversation_id":         suppliedId,
			"created_by_this_process": known,
		})
		return suppliedId, nil
	}

	items := []completion.Message{
		{Role: "system", Content: strings.TrimSpace(m.systemInstructions)},
	}
	id, err := m.store.CreateConversation(ctx, items)
	if err != nil {
		return "", err
	}

	m.repo.Save(&memory.ConversationRecord{
		Id:        id,
		CreatedAt: time.Now(),
	})
	m.logger.Info("conversation", "Created new conversation", map[string]interface{}{
		"conversation_id": id,
	})
	return id, nil
}
