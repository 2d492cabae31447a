package bot

// Conversation roles on outbound turn requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the prior turn history sent with a chat request.
type Message struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// NewTextMessage creates a text message with the given role and content.
func NewTextMessage(role, content string) Message {
	return Message{
		Role:        role,
		Content:     content,
		ContentType: ContentTypeText,
	}
}

// ChatRequest is the outbound conversation turn request.
type ChatRequest struct {
	// BotID identifies the agent on the platform.
	BotID string `json:"bot_id"`

	// UserID identifies the end user for history attribution.
	UserID string `json:"user_id"`

	// Stream requests an SSE response body.
	Stream bool `json:"stream"`

	// AutoSaveHistory lets the platform persist the turn server-side.
	AutoSaveHistory bool `json:"auto_save_history"`

	// AdditionalMessages is the prior turn history, oldest first, with the
	// new user message last.
	AdditionalMessages []Message `json:"additional_messages,omitempty"`
}
