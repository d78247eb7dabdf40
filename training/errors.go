package training

import "errors"

var (
	// ErrInvalidSampleLimit is returned when a sample limit is negative.
	ErrInvalidSampleLimit = errors.New("sample limit must not be negative")

	// ErrRepositoryRequired is returned when a Preparer is built without storage.
	ErrRepositoryRequired = errors.New("standard and requirement repositories are required")
)
