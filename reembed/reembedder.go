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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of requirements to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of requirements)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Purge deletes every cached vector before reembedding
	Purge bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarizes a reembedding run.
type Stats struct {
	Requirements int
	Embedded     int
	Purged       int
}

// Reembedder orchestrates the reembedding of all stored requirements.
type Reembedder struct {
	requirements storage.RequirementRepository
	embeddings   storage.EmbeddingRepository
	config       *Config
	progress     io.Writer
	processor    *BatchProcessor
	iterator     *RequirementIterator
	logger       *slog.Logger
}

// NewReembedder creates a new reembedder.
// cache: recomputes and stores vectors, normally the *cache.Embedder searches use
// embeddings: the store behind cache, used for purging
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(requirements storage.RequirementRepository, embeddings storage.EmbeddingRepository, cache Refresher, config *Config, progress io.Writer, logger *slog.Logger) (*Reembedder, error) {
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reembed")

	return &Reembedder{
		requirements: requirements,
		embeddings:   embeddings,
		config:       config,
		progress:     progress,
		processor:    NewBatchProcessor(cache, config.MaxRetries, config.RetryDelay, logger),
		iterator:     NewRequirementIterator(requirements, config.BatchSize),
		logger:       logger,
	}, nil
}

// Run executes the reembedding operation.
// Every stored requirement is reembedded with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.requirements.CountRequirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count requirements: %w", err)
	}

	stats := &Stats{Requirements: total}
	if r.config.Purge {
		purged, err := r.embeddings.DeleteEmbeddings(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to purge embeddings: %w", err)
		}
		stats.Purged = purged
		r.logger.Info("purged embedding cache", "vectors", purged)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No requirements found in database (0 requirements)\n")
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d requirements (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval, "requirements")
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(batch []*core.Requirement) error {
		embedded, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		stats.Embedded += embedded
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		return stats, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d requirements in %v (%.1f requirements/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	r.logger.Info("reembedding complete", "requirements", total, "embedded", stats.Embedded)

	return stats, nil
}
