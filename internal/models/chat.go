package models

// Transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a chat transcript
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat/{id}
type ChatRequest struct {
	Message string `json:"message"`
	Context []Turn `json:"context,omitempty"`
}

// ChatResponse is returned by POST /chat/{id}
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// HistoryEntry is one element of GET /chat/{id}/history
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// ErrorBody is the error envelope the backend uses for non-2xx responses
type ErrorBody struct {
	Detail string `json:"detail"`
}
