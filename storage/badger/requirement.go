package badger

import (
	"context"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// RequirementRepository implements storage.RequirementRepository for BadgerDB.
type RequirementRepository struct {
	store *orderedStore[core.Requirement]
}

var _ storage.RequirementRepository = (*RequirementRepository)(nil)

// NewRequirementRepository creates a new RequirementRepository.
func NewRequirementRepository(backend *Backend) (*RequirementRepository, error) {
	seq, err := backend.GetSequence(requirementSeq)
	if err != nil {
		return nil, err
	}

	return &RequirementRepository{
		store: &orderedStore[core.Requirement]{
			backend:     backend,
			seq:         seq,
			prefix:      requirementPrefix,
			indexPrefix: requirementIDPrefix,
			keyOf:       func(r *core.Requirement) string { return r.ReferenceID },
			marshal:     storage.MarshalRequirement,
			unmarshal:   storage.UnmarshalRequirement,
		},
	}, nil
}

// Close releases the sequence.
func (r *RequirementRepository) Close() error {
	return r.store.close()
}

// AddRequirements appends requirements in the given order, truncating
// descriptions to core.MaxDescriptionLength. The caller's records are not
// modified; the returned records are the stored copies.
func (r *RequirementRepository) AddRequirements(ctx context.Context, requirements ...*core.Requirement) ([]*core.Requirement, error) {
	stored, err := prepareRequirements(requirements)
	if err != nil {
		return nil, err
	}
	return r.store.add(ctx, stored...)
}

// prepareRequirements validates requirements and returns truncated copies.
func prepareRequirements(requirements []*core.Requirement) ([]*core.Requirement, error) {
	stored := make([]*core.Requirement, len(requirements))
	for i, req := range requirements {
		if err := core.ValidateRequirement(req); err != nil {
			return nil, err
		}
		c := *req
		c.Description = core.TruncateDescription(req.Description)
		stored[i] = &c
	}
	return stored, nil
}

// GetRequirement retrieves a requirement by reference ID.
func (r *RequirementRepository) GetRequirement(ctx context.Context, referenceID string) (*core.Requirement, error) {
	return r.store.get(ctx, referenceID)
}

// GetRequirements returns all requirements in load order.
func (r *RequirementRepository) GetRequirements(ctx context.Context) ([]*core.Requirement, error) {
	return r.store.all(ctx)
}

// CountRequirements returns the number of stored requirements.
func (r *RequirementRepository) CountRequirements(ctx context.Context) (int, error) {
	return r.store.count(ctx)
}
