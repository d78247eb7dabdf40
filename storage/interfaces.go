package storage

import (
	"context"

	"github.com/poiesic/reqmatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases the repository. The shared backend is closed separately.
	Close() error
}

// StandardRepository stores reference standards in load order.
type StandardRepository interface {
	Repository
	// AddStandards appends standards after those already stored.
	// Returns ErrDuplicateKey if a standard ID is already stored or repeated
	// in the batch; nothing is written in that case.
	AddStandards(ctx context.Context, standards ...*core.Standard) ([]*core.Standard, error)

	// GetStandard retrieves a standard by ID.
	// Returns ErrNotFound if the standard doesn't exist.
	GetStandard(ctx context.Context, id string) (*core.Standard, error)

	// GetStandards returns every standard in the order it was added.
	GetStandards(ctx context.Context) ([]*core.Standard, error)

	// CountStandards returns the number of stored standards.
	CountStandards(ctx context.Context) (int, error)
}

// RequirementRepository stores catalogue requirements in load order.
type RequirementRepository interface {
	Repository
	// AddRequirements appends requirements after those already stored.
	// Descriptions are truncated to core.MaxDescriptionLength.
	// Returns ErrDuplicateKey if a reference ID is already stored or repeated
	// in the batch; nothing is written in that case.
	AddRequirements(ctx context.Context, requirements ...*core.Requirement) ([]*core.Requirement, error)

	// GetRequirement retrieves a requirement by reference ID.
	// Returns ErrNotFound if the requirement doesn't exist.
	GetRequirement(ctx context.Context, referenceID string) (*core.Requirement, error)

	// GetRequirements returns every requirement in the order it was added.
	GetRequirements(ctx context.Context) ([]*core.Requirement, error)

	// CountRequirements returns the number of stored requirements.
	CountRequirements(ctx context.Context) (int, error)
}

// CatalogueWriter stores standards and requirements as one unit.
type CatalogueWriter interface {
	// AddCatalogue appends standards, then requirements, in a single
	// transaction. On any error, including ErrDuplicateKey, nothing is written.
	AddCatalogue(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) ([]*core.Standard, []*core.Requirement, error)
}

// EmbeddingRepository caches embedding vectors under content-derived keys.
type EmbeddingRepository interface {
	Repository
	// GetEmbedding returns the vector stored under key.
	// Returns ErrNotFound if nothing is cached.
	GetEmbedding(ctx context.Context, key core.ID) ([]float32, error)

	// PutEmbeddings stores vectors, replacing any existing entries.
	PutEmbeddings(ctx context.Context, entries map[core.ID][]float32) error

	// DeleteEmbeddings removes every cached vector and returns how many were removed.
	DeleteEmbeddings(ctx context.Context) (int, error)

	// CountEmbeddings returns the number of cached vectors.
	CountEmbeddings(ctx context.Context) (int, error)
}

// LabelMapRepository persists label encodings by name so a later run can
// continue an earlier encoding explicitly.
type LabelMapRepository interface {
	Repository
	// SaveLabelMap stores labels under name, replacing any previous map.
	SaveLabelMap(ctx context.Context, name string, labels *core.LabelMap) error

	// LoadLabelMap restores the map stored under name.
	// Returns ErrNotFound if no map has that name.
	LoadLabelMap(ctx context.Context, name string) (*core.LabelMap, error)
}
