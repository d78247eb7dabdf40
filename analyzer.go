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


// Package reqmatch matches free-text queries against a catalogue of
// standard-derived requirements and prepares labeled training data from it.
//
// Analyzer ties the pieces together over a single Badger store:
//
//	a, err := reqmatch.Open("./reqmatch_db")
//	...
//	defer a.Close()
//	matches, err := a.SearchRequirements(ctx, "encrypt data at rest")
package reqmatch

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/ai/cache"
	"github.com/poiesic/reqmatch/ai/openai"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/ingestion"
	"github.com/poiesic/reqmatch/reembed"
	"github.com/poiesic/reqmatch/search"
	"github.com/poiesic/reqmatch/storage/badger"
	"github.com/poiesic/reqmatch/training"
)

// Analyzer answers catalogue queries and searches.
type Analyzer struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	embedder *cache.Embedder
	searcher *search.Searcher
	options  *analyzerOptions
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*analyzerOptions)

type analyzerOptions struct {
	aiConfig        *ai.Config
	provider        ai.AIProvider
	inMemory        bool
	searchOptions   []search.Option
	trainingOptions []training.PreparerOption
	labelMapName    string
	logger          *slog.Logger
}

// WithAIConfig sets the configuration of the default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *analyzerOptions) {
		o.aiConfig = config
	}
}

// WithProvider replaces the default provider. The Analyzer takes ownership
// and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *analyzerOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the store in memory; the path is ignored.
func WithInMemory() Option {
	return func(o *analyzerOptions) {
		o.inMemory = true
	}
}

// WithSearchOptions configures the searcher.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *analyzerOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithTrainingOptions configures training-set preparation.
func WithTrainingOptions(opts ...training.PreparerOption) Option {
	return func(o *analyzerOptions) {
		o.trainingOptions = append(o.trainingOptions, opts...)
	}
}

// WithLabelMapName persists training label maps under name.
func WithLabelMapName(name string) Option {
	return func(o *analyzerOptions) {
		o.labelMapName = name
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *analyzerOptions) {
		o.logger = logger
	}
}

// Open opens or creates the store at path.
func Open(path string, opts ...Option) (*Analyzer, error) {
	options := &analyzerOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	repos, err := badger.OpenRepositories(backend)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	embedder := cache.NewEmbedder(provider.Embedder(), repos.Embeddings, provider.ModelID(), cache.WithLogger(options.logger))

	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOptions...)
	searcher, err := search.NewSearcher(embedder, searchOpts...)
	if err != nil {
		repos.Close()
		provider.Close()
		return nil, err
	}

	return &Analyzer{
		repos:    repos,
		provider: provider,
		embedder: embedder,
		searcher: searcher,
		options:  options,
		logger:   options.logger.With("component", "analyzer"),
	}, nil
}

// Close releases the searcher, the provider and the store.
func (a *Analyzer) Close() error {
	a.searcher.Release()

	var errs []error
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := a.repos.Close(); err != nil {
		a.logger.Error("error closing storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Repositories exposes the underlying store.
func (a *Analyzer) Repositories() *badger.Repositories {
	return a.repos
}

// Embedder returns the caching embedder searches use.
func (a *Analyzer) Embedder() *cache.Embedder {
	return a.embedder
}

// Threshold returns the similarity cutoff searches apply.
func (a *Analyzer) Threshold() float32 {
	return a.searcher.Threshold()
}

// ListRequirements returns every requirement in load order.
func (a *Analyzer) ListRequirements(ctx context.Context) ([]*core.Requirement, error) {
	return a.repos.Requirements.GetRequirements(ctx)
}

// ListStandards returns every standard in load order.
func (a *Analyzer) ListStandards(ctx context.Context) ([]*core.Standard, error) {
	return a.repos.Standards.GetStandards(ctx)
}

// GetRequirement returns the requirement with referenceID.
// Returns storage.ErrNotFound if there is none.
func (a *Analyzer) GetRequirement(ctx context.Context, referenceID string) (*core.Requirement, error) {
	return a.repos.Requirements.GetRequirement(ctx, referenceID)
}

// GetStandard returns the standard with id.
// Returns storage.ErrNotFound if there is none.
func (a *Analyzer) GetStandard(ctx context.Context, id string) (*core.Standard, error) {
	return a.repos.Standards.GetStandard(ctx, id)
}

// SearchRequirements ranks the whole catalogue against query.
func (a *Analyzer) SearchRequirements(ctx context.Context, query string) ([]*core.StandardRequirement, error) {
	candidates, err := a.repos.Requirements.GetRequirements(ctx)
	if err != nil {
		return nil, err
	}
	return a.searcher.FindSimilar(ctx, query, candidates)
}

// SearchRequirementsScored is SearchRequirements keeping similarity scores.
func (a *Analyzer) SearchRequirementsScored(ctx context.Context, query string) ([]search.Scored[*core.StandardRequirement], error) {
	candidates, err := a.repos.Requirements.GetRequirements(ctx)
	if err != nil {
		return nil, err
	}
	return a.searcher.FindSimilarScored(ctx, query, candidates)
}

// PrepareTrainingSet joins and encodes the stored catalogue.
func (a *Analyzer) PrepareTrainingSet(ctx context.Context) (*training.Dataset, error) {
	opts := append([]training.PreparerOption{training.WithLogger(a.options.logger)}, a.options.trainingOptions...)
	if a.options.labelMapName != "" {
		opts = append(opts, training.WithLabelMap(a.repos.LabelMaps, a.options.labelMapName))
	}
	preparer, err := training.NewPreparer(a.repos.Standards, a.repos.Requirements, opts...)
	if err != nil {
		return nil, err
	}
	return preparer.Prepare(ctx)
}

// NewIngestionPipeline creates a pipeline that warms this analyzer's cache.
func (a *Analyzer) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{
		ingestion.WithLogger(a.options.logger),
		ingestion.WithCatalogueWriter(a.repos),
	}, opts...)
	return ingestion.NewPipeline(a.repos.Standards, a.repos.Requirements, a.embedder, opts...)
}

// Ingest stores standards and requirements and waits for cache warmup.
// A warmup failure is logged, not returned; searches embed on demand.
func (a *Analyzer) Ingest(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) (*ingestion.Result, error) {
	pipeline, err := a.NewIngestionPipeline()
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, standards, requirements)
	if err != nil {
		return result, err
	}
	if err := pipeline.Wait(); err != nil {
		a.logger.Warn("embedding cache warmup incomplete", "err", err)
	}
	return result, nil
}

// NewReembedder creates a reembedder for this analyzer's cache.
func (a *Analyzer) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(a.repos.Requirements, a.repos.Embeddings, a.embedder, config, progress, a.options.logger)
}
