package badger

import (
	"context"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// StandardRepository implements storage.StandardRepository for BadgerDB.
type StandardRepository struct {
	store *orderedStore[core.Standard]
}

var _ storage.StandardRepository = (*StandardRepository)(nil)

// NewStandardRepository creates a new StandardRepository.
func NewStandardRepository(backend *Backend) (*StandardRepository, error) {
	seq, err := backend.GetSequence(standardSeq)
	if err != nil {
		return nil, err
	}

	return &StandardRepository{
		store: &orderedStore[core.Standard]{
			backend:     backend,
			seq:         seq,
			prefix:      standardPrefix,
			indexPrefix: standardIDPrefix,
			keyOf:       func(s *core.Standard) string { return s.ID },
			marshal:     storage.MarshalStandard,
			unmarshal:   storage.UnmarshalStandard,
		},
	}, nil
}

// Close releases the sequence.
func (r *StandardRepository) Close() error {
	return r.store.close()
}

// AddStandards appends standards in the given order.
func (r *StandardRepository) AddStandards(ctx context.Context, standards ...*core.Standard) ([]*core.Standard, error) {
	for _, s := range standards {
		if err := core.ValidateStandard(s); err != nil {
			return nil, err
		}
	}
	return r.store.add(ctx, standards...)
}

// GetStandard retrieves a standard by ID.
func (r *StandardRepository) GetStandard(ctx context.Context, id string) (*core.Standard, error) {
	return r.store.get(ctx, id)
}

// GetStandards returns all standards in load order.
func (r *StandardRepository) GetStandards(ctx context.Context) ([]*core.Standard, error) {
	return r.store.all(ctx)
}

// CountStandards returns the number of stored standards.
func (r *StandardRepository) CountStandards(ctx context.Context) (int, error) {
	return r.store.count(ctx)
}
