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


package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// DefaultSampleLimit is the number of joined records kept for training.
const DefaultSampleLimit = 2000

// Dataset is the output of a preparation run.
type Dataset struct {
	Records []*core.EncodedTrainingRecord
	Labels  *core.LabelMap
	Stats   JoinStats
	// Sampled is the number of joined records discarded by the sample limit.
	Sampled int
}

// Preparer builds training datasets from stored standards and requirements.
type Preparer struct {
	standards    storage.StandardRepository
	requirements storage.RequirementRepository
	labelMaps    storage.LabelMapRepository
	labelMapName string
	sampleLimit  int
	logger       *slog.Logger
}

// PreparerOption configures a Preparer.
type PreparerOption func(*Preparer) error

// WithSampleLimit caps the number of joined records encoded, keeping the
// first limit records in requirement order. Zero means no limit.
// Default is DefaultSampleLimit.
func WithSampleLimit(limit int) PreparerOption {
	return func(p *Preparer) error {
		if limit < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidSampleLimit, limit)
		}
		p.sampleLimit = limit
		return nil
	}
}

// WithLabelMap persists the encoding under name. An existing map with that
// name is continued, so labels keep the codes an earlier run gave them.
func WithLabelMap(repo storage.LabelMapRepository, name string) PreparerOption {
	return func(p *Preparer) error {
		if name == "" {
			return core.ErrEmptyID
		}
		p.labelMaps = repo
		p.labelMapName = name
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PreparerOption {
	return func(p *Preparer) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPreparer creates a Preparer reading from the given repositories.
func NewPreparer(standards storage.StandardRepository, requirements storage.RequirementRepository, opts ...PreparerOption) (*Preparer, error) {
	if standards == nil || requirements == nil {
		return nil, ErrRepositoryRequired
	}

	p := &Preparer{
		standards:    standards,
		requirements: requirements,
		sampleLimit:  DefaultSampleLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "training")

	return p, nil
}

// Prepare loads the catalogue, joins, samples and encodes it.
func (p *Preparer) Prepare(ctx context.Context) (*Dataset, error) {
	standards, err := p.standards.GetStandards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load standards: %w", err)
	}
	requirements, err := p.requirements.GetRequirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load requirements: %w", err)
	}
	p.logger.Info("loaded catalogue", "standards", len(standards), "requirements", len(requirements))

	records, stats := Join(standards, requirements)
	p.logger.Info("joined requirements to standards", "matched", stats.Matched, "dropped", stats.Dropped)

	sampled := 0
	if p.sampleLimit > 0 && len(records) > p.sampleLimit {
		sampled = len(records) - p.sampleLimit
		records = records[:p.sampleLimit]
		p.logger.Info("applied sample limit", "limit", p.sampleLimit, "discarded", sampled)
	}

	labels, err := p.loadLabels(ctx)
	if err != nil {
		return nil, err
	}
	before := labels.Len()
	encoded := EncodeWith(records, labels)
	p.logger.Info("encoded labels", "records", len(encoded), "labels", labels.Len(), "new", labels.Len()-before)

	if p.labelMaps != nil {
		if err := p.labelMaps.SaveLabelMap(ctx, p.labelMapName, labels); err != nil {
			return nil, fmt.Errorf("failed to save label map %q: %w", p.labelMapName, err)
		}
	}

	return &Dataset{Records: encoded, Labels: labels, Stats: stats, Sampled: sampled}, nil
}

func (p *Preparer) loadLabels(ctx context.Context) (*core.LabelMap, error) {
	if p.labelMaps == nil {
		return core.NewLabelMap(), nil
	}
	labels, err := p.labelMaps.LoadLabelMap(ctx, p.labelMapName)
	if errors.Is(err, storage.ErrNotFound) {
		return core.NewLabelMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load label map %q: %w", p.labelMapName, err)
	}
	p.logger.Debug("continuing label map", "name", p.labelMapName, "labels", labels.Len())
	return labels, nil
}
