package store

import "errors"

var (
	// ErrStorageRequired indicates the store was constructed without a blob store.
	ErrStorageRequired = errors.New("blob store is required")
)
