package completion

import "context"

// Message represents a prompt message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Request carries everything one completion call needs. The same request
// shape serves both the synchronous and the streaming path.
type Request struct {
	Model           string
	Input           []Message
	Conversation    string
	ReasoningEffort string
	MaxOutputTokens int
	Store           bool
}

// StreamChunk is one incremental output-text fragment, or a terminal error.
// A chunk with Err set is the last one sent before the channel closes.
type StreamChunk struct {
	Delta string
	Err   error
}

// Provider defines the contract for the completion backend.
type Provider interface {
	// Create runs one synchronous completion and returns the output text
	// (empty string when the backend produced none).
	Create(ctx context.Context, req *Request) (string, error)

	// Stream opens a streaming completion. The returned channel yields one
	// chunk per output-text delta and is closed when the backend stream ends.
	Stream(ctx context.Context, req *Request) (<-chan StreamChunk, error)
}

// ConversationStore creates backend-owned conversation handles.
type ConversationStore interface {
	// CreateConversation seeds a new conversation with the given items and
	// returns the backend-assigned identifier.
	CreateConversation(ctx context.Context, items []Message) (string, error)
}
