package registry

import "errors"

var (
	// ErrSplitterRequired indicates a nil splitter was provided.
	ErrSplitterRequired = errors.New("splitter is required")

	// ErrRedactorRequired indicates a nil redactor was provided.
	ErrRedactorRequired = errors.New("redactor is required")
)
