package index

import "errors"

var (
	// ErrRegistryRequired indicates the coordinator was constructed without a chunk registry.
	ErrRegistryRequired = errors.New("chunk registry is required")

	// ErrStoreRequired indicates the coordinator was constructed without a vector store.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrEmbedderRequired indicates the coordinator was constructed without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidMaxAttempts indicates a retry was requested with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
