// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// LabelMapRepository implements storage.LabelMapRepository for BadgerDB.
type LabelMapRepository struct {
	backend *Backend
}

var _ storage.LabelMapRepository = (*LabelMapRepository)(nil)

// NewLabelMapRepository creates a new LabelMapRepository.
func NewLabelMapRepository(backend *Backend) *LabelMapRepository {
	return &LabelMapRepository{
		backend: backend,
	}
}

// Close releases resources. LabelMapRepository has no resources to release.
func (r *LabelMapRepository) Close() error {
	return nil
}

// SaveLabelMap persists labels under name.
func (r *LabelMapRepository) SaveLabelMap(ctx context.Context, name string, labels *core.LabelMap) error {
	if strings.TrimSpace(name) == "" {
		return core.ErrEmptyID
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLabelMapKey(name), storage.MarshalLabelMap(labels)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadLabelMap retrieves the label map stored under name.
func (r *LabelMapRepository) LoadLabelMap(ctx context.Context, name string) (*core.LabelMap, error) {
	var labels *core.LabelMap
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLabelMapKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			labels, unmarshalErr = storage.UnmarshalLabelMap(val)
			return unmarshalErr
		})
	}, false)

	return labels, err
}
