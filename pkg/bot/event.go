// Package bot provides the client and wire types for the conversational-agent
// platform that powers the sweeper voice assistant. It decodes the agent's
// SSE chat stream into typed events for the conversation orchestrator.
package bot

import (
	"encoding/json"
	"strings"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sse"
)

// Recognized SSE event names on the chat stream. Any other name is accepted
// and logged but not specially handled.
const (
	EventChatCreated      = "conversation.chat.created"
	EventChatInProgress   = "conversation.chat.in_progress"
	EventMessageDelta     = "conversation.message.delta"
	EventMessageCompleted = "conversation.message.completed"
	EventChatCompleted    = "conversation.chat.completed"
	EventChatFailed       = "conversation.chat.failed"
)

// Message type discriminator values. The set is open-ended upstream; treat
// anything not listed here as TypeUnknown and route it to silent handling.
const (
	TypeAnswer       = "answer"
	TypeFunctionCall = "function_call"
	TypeToolResponse = "tool_response"
	TypeFollowUp     = "follow_up"
	TypeVerbose      = "verbose"
)

// Content type values carried on messages.
const (
	ContentTypeText  = "text"
	ContentTypeAudio = "audio"
	ContentTypeImage = "image"
)

// MessageData mirrors the JSON envelope carried on each "data:" line of the
// chat stream. Content is only meaningful when Type is "answer" and
// ContentType is "text"; every other combination stays out of the
// user-facing transcript.
type MessageData struct {
	ID             string `json:"id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	BotID          string `json:"bot_id,omitempty"`
	ChatID         string `json:"chat_id,omitempty"`
	Role           string `json:"role,omitempty"`
	Type           string `json:"type,omitempty"`
	Content        string `json:"content,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	CreatedAt      int64  `json:"created_at,omitempty"`
	CompletedAt    int64  `json:"completed_at,omitempty"`
	Status         string `json:"status,omitempty"`

	// LastError is populated on failed chats.
	LastError *ErrorInfo `json:"last_error,omitempty"`

	// Usage is typically only present on terminal events.
	Usage *Usage `json:"usage,omitempty"`
}

// ErrorInfo is the upstream-reported failure detail.
type ErrorInfo struct {
	Code int    `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

// Usage contains token accounting reported by the agent platform.
type Usage struct {
	TokenCount  int `json:"token_count,omitempty"`
	OutputCount int `json:"output_count,omitempty"`
	InputCount  int `json:"input_count,omitempty"`
}

// ChatEvent is one decoded unit of the stream: the SSE event name combined
// with its parsed payload.
type ChatEvent struct {
	Event   string
	Message *MessageData
}

// IsAnswerText reports whether this event carries user-facing assistant text.
func (e *ChatEvent) IsAnswerText() bool {
	return e.Message != nil &&
		e.Message.Type == TypeAnswer &&
		e.Message.ContentType == ContentTypeText
}

// DecodeEvent parses the payload of a raw SSE event into a ChatEvent.
// It returns false when the payload is empty or malformed; a single bad
// frame must not abort the conversation, so callers skip and continue.
func DecodeEvent(ev *sse.Event) (*ChatEvent, bool) {
	if ev == nil || strings.TrimSpace(ev.Data) == "" {
		return nil, false
	}

	msg := &MessageData{}
	if err := json.Unmarshal([]byte(ev.Data), msg); err != nil {
		return nil, false
	}

	return &ChatEvent{Event: ev.Type, Message: msg}, true
}
