package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// Repositories bundles every repository sharing one backend.
type Repositories struct {
	Backend      *Backend
	Standards    *StandardRepository
	Requirements *RequirementRepository
	Embeddings   *EmbeddingRepository
	LabelMaps    *LabelMapRepository
}

var _ storage.CatalogueWriter = (*Repositories)(nil)

// OpenRepositories creates all repositories over backend.
// The backend is owned by the result and closed by Close.
func OpenRepositories(backend *Backend) (*Repositories, error) {
	standards, err := NewStandardRepository(backend)
	if err != nil {
		return nil, err
	}

	requirements, err := NewRequirementRepository(backend)
	if err != nil {
		standards.Close()
		return nil, err
	}

	return &Repositories{
		Backend:      backend,
		Standards:    standards,
		Requirements: requirements,
		Embeddings:   NewEmbeddingRepository(backend),
		LabelMaps:    NewLabelMapRepository(backend),
	}, nil
}

// Close closes every repository, then the backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.LabelMaps.Close(),
		r.Embeddings.Close(),
		r.Requirements.Close(),
		r.Standards.Close(),
		r.Backend.Close(),
	)
}

// AddCatalogue stores standards and requirements in one transaction, so a
// failed import leaves the store unchanged and can simply be retried.
func (r *Repositories) AddCatalogue(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) ([]*core.Standard, []*core.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, s := range standards {
		if err := core.ValidateStandard(s); err != nil {
			return nil, nil, err
		}
	}
	stored, err := prepareRequirements(requirements)
	if err != nil {
		return nil, nil, err
	}

	// Lock order: standards, then requirements.
	r.Standards.store.mu.Lock()
	defer r.Standards.store.mu.Unlock()
	r.Requirements.store.mu.Lock()
	defer r.Requirements.store.mu.Unlock()

	err = r.Backend.WithTx(func(tx *badger.Txn) error {
		if err := r.Standards.store.put(tx, standards); err != nil {
			return err
		}
		if err := r.Requirements.store.put(tx, stored); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, nil, err
	}
	return standards, stored, nil
}
