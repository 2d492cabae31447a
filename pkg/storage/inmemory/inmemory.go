// Package inmemory provides a map-backed storage driver for tests and
// ephemeral sessions.
package inmemory

import (
	"context"
	"sync"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	mu sync.RWMutex

	// turns maps conversation id to its turns in append order.
	turns map[string][]*storage.Turn

	// order records conversation ids by first appearance.
	order []string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string][]*storage.Turn),
	}
}

// Append stores a completed turn.
func (d *Driver) Append(_ context.Context, turn *storage.Turn) error {
	if turn == nil {
		return storage.ErrNilTurn
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.turns[turn.ConversationID]; !ok {
		d.order = append(d.order, turn.ConversationID)
	}

	copied := *turn
	d.turns[turn.ConversationID] = append(d.turns[turn.ConversationID], &copied)

	return nil
}

// History returns a conversation's turns, oldest first.
func (d *Driver) History(_ context.Context, conversationID string) ([]*storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turns, ok := d.turns[conversationID]
	if !ok {
		return nil, storage.NotFoundError{ConversationID: conversationID}
	}

	result := make([]*storage.Turn, len(turns))
	for i, t := range turns {
		copied := *t
		result[i] = &copied
	}

	return result, nil
}

// Conversations lists known conversation ids, oldest first.
func (d *Driver) Conversations(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]string, len(d.order))
	copy(result, d.order)
	return result, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
