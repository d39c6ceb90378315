package dto

import (
	"time"

	"github.com/google/uuid"
)

// PublishQueryCompletedMessage is the audit event published after each
// successfully answered query or finished stream.
type PublishQueryCompletedMessage struct {
	EventId        uuid.UUID `json:"event_id"`
	ConversationId string    `json:"conversation_id"`
	Mode           string    `json:"mode"` // "query" | "stream"
	AnswerChars    int       `json:"answer_chars"`
	DurationMs     int64     `json:"duration_ms"`
	OccurredAt     time.Time `json:"occurred_at"`
}
