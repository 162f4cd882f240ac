package indexer

import "errors"

var (
	// ErrSourceRequired indicates the indexer was constructed without a document source.
	ErrSourceRequired = errors.New("document source is required")

	// ErrRegistryRequired indicates the indexer was constructed without a chunk registry.
	ErrRegistryRequired = errors.New("chunk registry is required")

	// ErrCoordinatorRequired indicates the indexer was constructed without an embedding coordinator.
	ErrCoordinatorRequired = errors.New("embedding coordinator is required")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("indexer already started")
)
