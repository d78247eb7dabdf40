package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrCacheRequired is returned when no embedding cache is provided.
	ErrCacheRequired = errors.New("embedding cache required")
)
