package eventstream

import (
	"time"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a conversation turn completes
	// and its transcript entry is persisted.
	EventTypeTurnCompleted = "sweeper.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed turn.
type TurnCompletedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	TurnMeta      TurnMeta     `json:"turn_meta"`
	Turn          storage.Turn `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Project string `json:"project,omitempty"`
	BotID   string `json:"bot_id"`
	UserID  string `json:"user_id,omitempty"`
}

// TurnMeta captures turn lifecycle metadata for the event.
type TurnMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Suppressed  bool      `json:"suppressed"`
}
