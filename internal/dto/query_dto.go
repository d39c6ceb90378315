package dto

// QueryRequest is the request body shared by POST /query and POST /stream.
// conversation_id is optional; when omitted a new conversation is created on
// the completion backend.
type QueryRequest struct {
	Question       string `json:"question" validate:"required"`
	ConversationId string `json:"conversation_id,omitempty"`
}

type AnswerResponse struct {
	Answer         string `json:"answer"`
	ConversationId string `json:"conversation_id"`
}

// --- SSE event payloads ---

const (
	StreamEventToken = "token"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

type TokenEvent struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type DoneEvent struct {
	Type           string `json:"type"`
	Answer         string `json:"answer"`
	ConversationId string `json:"conversation_id"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
