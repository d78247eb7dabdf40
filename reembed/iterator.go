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


package reembed

import (
	"context"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

const (
	// DefaultBatchSize is the default number of requirements in each batch
	DefaultBatchSize = 100
)

// RequirementIterator iterates over all stored requirements in load order.
type RequirementIterator struct {
	repo      storage.RequirementRepository
	batchSize int
}

// NewRequirementIterator creates a new requirement iterator.
// batchSize: number of requirements in each batch (must be > 0)
func NewRequirementIterator(repo storage.RequirementRepository, batchSize int) *RequirementIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RequirementIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of requirements.
// Iteration stops on first error from fn or when all requirements are processed.
// Context cancellation is checked between batches.
func (it *RequirementIterator) ForEach(ctx context.Context, fn func([]*core.Requirement) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	requirements, err := it.repo.GetRequirements(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(requirements); i += it.batchSize {
		end := min(i+it.batchSize, len(requirements))

		if err := fn(requirements[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
