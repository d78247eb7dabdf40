package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{
		backend: backend,
	}
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// GetEmbedding returns the vector cached under key.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, key core.ID) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var vector []float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			vector, err = storage.UnmarshalVector(val)
			return err
		})
	}, false)
	return vector, err
}

// PutEmbeddings stores vectors, replacing existing entries.
func (r *EmbeddingRepository) PutEmbeddings(ctx context.Context, entries map[core.ID][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for key, vector := range entries {
			if err := tx.Set(makeEmbeddingKey(key), storage.MarshalVector(vector)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteEmbeddings drops every cached vector.
func (r *EmbeddingRepository) DeleteEmbeddings(ctx context.Context) (int, error) {
	n, err := r.CountEmbeddings(ctx)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := r.backend.DropPrefix(scanPrefix(embeddingPrefix)); err != nil {
		return 0, err
	}
	return n, nil
}

// CountEmbeddings returns the number of cached vectors.
func (r *EmbeddingRepository) CountEmbeddings(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		n = countPrefix(tx, scanPrefix(embeddingPrefix))
		return nil
	}, false)
	return n, err
}
