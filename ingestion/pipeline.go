package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// DefaultBatchSize is the number of texts sent to the embedder at once.
const DefaultBatchSize = 64

// Pipeline orchestrates the ingestion of standards and requirements.
type Pipeline struct {
	standardRepository    storage.StandardRepository
	requirementRepository storage.RequirementRepository
	catalogueWriter       storage.CatalogueWriter
	embeddingPool         *ants.Pool
	embeddingProc         processor
	batchSize             int
	logger                *slog.Logger

	wg       sync.WaitGroup
	mu       sync.Mutex
	failures []error
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for cache warmup.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithBatchSize sets how many descriptions are embedded per embedder call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithCatalogueWriter stores each Ingest call in a single transaction.
// Without one, standards and requirements are written separately.
func WithCatalogueWriter(writer storage.CatalogueWriter) Option {
	return func(p *Pipeline) error {
		p.catalogueWriter = writer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline. The embedder is used only to
// warm a cache; pass the caching embedder searches will use.
func NewPipeline(
	standardRepository storage.StandardRepository,
	requirementRepository storage.RequirementRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if standardRepository == nil {
		return nil, ErrStandardRepositoryRequired
	}
	if requirementRepository == nil {
		return nil, ErrRequirementRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		standardRepository:    standardRepository,
		requirementRepository: requirementRepository,
		embeddingPool:         embeddingPool,
		batchSize:             DefaultBatchSize,
		logger:                slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	embeddingProc, err := newEmbeddingProcessor(requirementRepository, embedder, p.batchSize, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Result reports what Ingest stored.
type Result struct {
	Standards    int
	Requirements int
}

// Ingest validates and stores standards, then requirements, in the order
// given, and schedules cache warmup for the new requirements.
//
// Every record is validated before anything is written: identifiers must be
// non-empty, unique within the call and not already stored. Violations are
// joined into one error wrapping core.ErrInvalidStandard,
// core.ErrInvalidRequirement or storage.ErrDuplicateKey.
func (p *Pipeline) Ingest(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) (*Result, error) {
	if err := p.validate(ctx, standards, requirements); err != nil {
		return nil, err
	}

	result, added, err := p.store(ctx, standards, requirements)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return result, nil
	}
	p.logger.Info("catalogue stored", "standards", result.Standards, "requirements", result.Requirements)

	ids := make([]string, len(added))
	for i, r := range added {
		ids[i] = r.ReferenceID
	}

	p.wg.Add(1)
	err = p.embeddingPool.Submit(func() {
		defer p.wg.Done()
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error warming embedding cache", "err", err)
			p.recordError(err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.logger.Error("error scheduling cache warmup", "err", err)
		p.recordError(err)
	}

	return result, nil
}

func (p *Pipeline) validate(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) error {
	var errs []error

	seen := make(map[string]struct{}, len(standards))
	for _, s := range standards {
		if err := core.ValidateStandard(s); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: standard %q repeated in batch", storage.ErrDuplicateKey, s.ID))
			continue
		}
		seen[s.ID] = struct{}{}
		if _, err := p.standardRepository.GetStandard(ctx, s.ID); err == nil {
			errs = append(errs, fmt.Errorf("%w: standard %q", storage.ErrDuplicateKey, s.ID))
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	seen = make(map[string]struct{}, len(requirements))
	for _, r := range requirements {
		if err := core.ValidateRequirement(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[r.ReferenceID]; dup {
			errs = append(errs, fmt.Errorf("%w: requirement %q repeated in batch", storage.ErrDuplicateKey, r.ReferenceID))
			continue
		}
		seen[r.ReferenceID] = struct{}{}
		if _, err := p.requirementRepository.GetRequirement(ctx, r.ReferenceID); err == nil {
			errs = append(errs, fmt.Errorf("%w: requirement %q", storage.ErrDuplicateKey, r.ReferenceID))
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	return errors.Join(errs...)
}

// store writes the catalogue and returns the stored requirements.
func (p *Pipeline) store(ctx context.Context, standards []*core.Standard, requirements []*core.Requirement) (*Result, []*core.Requirement, error) {
	if p.catalogueWriter != nil {
		addedStandards, addedRequirements, err := p.catalogueWriter.AddCatalogue(ctx, standards, requirements)
		if err != nil {
			return nil, nil, err
		}
		return &Result{Standards: len(addedStandards), Requirements: len(addedRequirements)}, addedRequirements, nil
	}

	result := &Result{}
	if len(standards) > 0 {
		added, err := p.standardRepository.AddStandards(ctx, standards...)
		if err != nil {
			return nil, nil, err
		}
		result.Standards = len(added)
	}
	if len(requirements) == 0 {
		return result, nil, nil
	}
	added, err := p.requirementRepository.AddRequirements(ctx, requirements...)
	if err != nil {
		return nil, nil, err
	}
	result.Requirements = len(added)
	return result, added, nil
}

// Wait blocks until scheduled warmups finish and returns their joined
// errors. Errors are cleared once returned.
func (p *Pipeline) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := errors.Join(p.failures...)
	p.failures = nil
	return err
}

func (p *Pipeline) recordError(err error) {
	p.mu.Lock()
	p.failures = append(p.failures, err)
	p.mu.Unlock()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
