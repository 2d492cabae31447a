// Package storage persists conversation transcripts. A Turn is one complete
// user-to-assistant exchange; drivers store turns append-only per
// conversation.
package storage

import (
	"context"
	"time"
)

// Turn is one persisted user-to-assistant exchange.
type Turn struct {
	// ID is a unique turn identifier.
	ID string `json:"id"`

	// ConversationID groups turns into a conversation.
	ConversationID string `json:"conversation_id"`

	// ChatID is the upstream chat identifier for this turn, when known.
	ChatID string `json:"chat_id,omitempty"`

	// UserText is the user's input for the turn.
	UserText string `json:"user_text"`

	// AssistantText is the sanitized assistant reply. Turns whose replies
	// were fully suppressed carry an empty string.
	AssistantText string `json:"assistant_text"`

	// CreatedAt is when the turn completed.
	CreatedAt time.Time `json:"created_at"`
}

// Driver defines the interface for persisting and retrieving transcript
// turns in a storage backend.
type Driver interface {
	// Append stores a completed turn.
	Append(ctx context.Context, turn *Turn) error

	// History returns a conversation's turns, oldest first. Returns
	// NotFoundError when the conversation has no turns.
	History(ctx context.Context, conversationID string) ([]*Turn, error)

	// Conversations lists known conversation ids, oldest first.
	Conversations(ctx context.Context) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}
