// Package storage defines persistence interfaces: the opaque blob store
// backing the vector container and the repository for conversation history.
package storage

import (
	"context"

	"github.com/poiesic/vaultrag/core"
)

// BlobStore persists a single opaque payload. The vector store's versioned
// container is the only structured payload written here.
type BlobStore interface {
	// Load returns the stored payload, or nil when nothing has been saved.
	Load() ([]byte, error)

	// Save overwrites the stored payload.
	Save(data []byte) error
}

// HistoryRepository persists conversation turns per session so a question can
// carry its recent context across process restarts.
type HistoryRepository interface {
	// AppendTurns appends turns to a session in order.
	AppendTurns(ctx context.Context, session string, turns ...*core.Turn) error

	// RecentTurns returns up to limit of the most recent turns for a
	// session, oldest first.
	RecentTurns(ctx context.Context, session string, limit int) ([]*core.Turn, error)

	// DeleteSession removes all turns for a session.
	DeleteSession(ctx context.Context, session string) error

	// Sessions lists all known session names.
	Sessions(ctx context.Context) ([]string, error)

	// Close closes the repository and releases resources.
	Close() error
}
