// Package sqlite provides a SQLite-backed transcript store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Driver{db: db}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		chat_id TEXT,
		user_text TEXT NOT NULL,
		assistant_text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_conversation_id ON turns(conversation_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Append stores a completed turn. Re-appending a turn id is a no-op.
func (d *Driver) Append(ctx context.Context, turn *storage.Turn) error {
	if turn == nil {
		return storage.ErrNilTurn
	}

	query := `INSERT OR IGNORE INTO turns (id, conversation_id, chat_id, user_text, assistant_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		turn.ID, turn.ConversationID, turn.ChatID,
		turn.UserText, turn.AssistantText, turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return nil
}

// History returns a conversation's turns, oldest first.
func (d *Driver) History(ctx context.Context, conversationID string) ([]*storage.Turn, error) {
	query := `SELECT id, conversation_id, chat_id, user_text, assistant_text, created_at
		FROM turns WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*storage.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	if len(turns) == 0 {
		return nil, storage.NotFoundError{ConversationID: conversationID}
	}

	return turns, nil
}

// Conversations lists known conversation ids, oldest first.
func (d *Driver) Conversations(ctx context.Context) ([]string, error) {
	query := `SELECT conversation_id FROM turns GROUP BY conversation_id ORDER BY MIN(created_at) ASC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return ids, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

func scanTurn(rows *sql.Rows) (*storage.Turn, error) {
	var turn storage.Turn
	var chatID sql.NullString
	var createdAt string

	if err := rows.Scan(&turn.ID, &turn.ConversationID, &chatID, &turn.UserText, &turn.AssistantText, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan turn: %w", err)
	}

	if chatID.Valid {
		turn.ChatID = chatID.String
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse turn timestamp: %w", err)
	}
	turn.CreatedAt = parsed

	return &turn, nil
}
