package ingestion

import "errors"

var (
	// ErrStandardRepositoryRequired is returned when a standard repository is not provided.
	ErrStandardRepositoryRequired = errors.New("standard repository required")

	// ErrRequirementRepositoryRequired is returned when a requirement repository is not provided.
	ErrRequirementRepositoryRequired = errors.New("requirement repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
