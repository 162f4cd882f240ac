// Package vault defines the collaborator interfaces through which the
// pipeline reaches the document collection: enumeration and reads, change
// notifications, and tag metadata for filter evaluation.
package vault

import (
	"context"
	"time"
)

// DocumentInfo describes one document in the collection. Paths are logical,
// slash-separated and relative to the vault root.
type DocumentInfo struct {
	Path      string
	Extension string
	Size      int64
	Created   time.Time
	Modified  time.Time
}

// DocumentSource enumerates and reads documents and publishes change events.
// Implementations must be safe for concurrent use.
type DocumentSource interface {
	// List enumerates all documents in the collection.
	List(ctx context.Context) ([]DocumentInfo, error)

	// Read returns the full text content of the document at path.
	Read(ctx context.Context, path string) (string, error)

	// Subscribe returns a channel of change events. The channel is closed
	// when ctx is cancelled or the source shuts down.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// MetadataSource returns the tag set for a document: inline tags plus
// frontmatter tags, including a singular tag field. Lookups are pure reads.
type MetadataSource interface {
	Tags(path string) []string
}
