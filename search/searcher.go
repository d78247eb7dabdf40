package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/core"
)

// Searcher finds the catalogue requirements most similar to a query.
// It is safe for concurrent use; every call keeps its own buffers.
type Searcher struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	poolSize  int
	threshold float32
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum similarity for a candidate to be returned.
// Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if math.IsNaN(float64(threshold)) || threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// WithPoolSize sets the number of candidates embedded concurrently.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
		}
		s.poolSize = size
		return nil
	}
}

// NewSearcher creates a new searcher around embedder.
// Call Release when the searcher is no longer needed.
func NewSearcher(embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		embedder:  embedder,
		poolSize:  runtime.NumCPU(),
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Threshold returns the similarity cutoff in use.
func (s *Searcher) Threshold() float32 {
	return s.threshold
}

// FindSimilar returns the candidates whose descriptions are similar to query,
// best match first. Returned pointers are the caller's own candidates.
//
// An empty or whitespace-only query fails with an error wrapping
// core.ErrInvalidInput. No candidates, or none above the threshold, yields an
// empty slice. Embedding failures and context cancellation abort the search.
func (s *Searcher) FindSimilar(ctx context.Context, query string, candidates []*core.StandardRequirement) ([]*core.StandardRequirement, error) {
	return s.FindSimilarWithMonitor(ctx, query, candidates, nil)
}

// FindSimilarWithMonitor is FindSimilar with callbacks at each stage of the search.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, candidates []*core.StandardRequirement, monitor SearchMonitor) ([]*core.StandardRequirement, error) {
	scored, err := s.search(ctx, query, candidates, monitor)
	if err != nil {
		return nil, err
	}
	results := make([]*core.StandardRequirement, len(scored))
	for i, r := range scored {
		results[i] = r.Item
	}
	return results, nil
}

// FindSimilarScored is FindSimilar keeping each result's similarity score.
func (s *Searcher) FindSimilarScored(ctx context.Context, query string, candidates []*core.StandardRequirement) ([]Scored[*core.StandardRequirement], error) {
	return s.search(ctx, query, candidates, nil)
}

func (s *Searcher) search(ctx context.Context, query string, candidates []*core.StandardRequirement, monitor SearchMonitor) ([]Scored[*core.StandardRequirement], error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrEmptyQuery)
	}
	monitor.Start(query)

	normalized := Normalize(query)
	queryVector, err := s.embed(ctx, normalized)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	monitor.AfterQueryEmbedding(normalized, queryVector)

	live := make([]*core.StandardRequirement, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		results := []Scored[*core.StandardRequirement]{}
		monitor.Finish(results)
		return results, nil
	}

	vectors, err := s.embedCandidates(ctx, live)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidateEmbedding(len(vectors))

	scored := make([]Scored[*core.StandardRequirement], len(live))
	for i, c := range live {
		scored[i] = Scored[*core.StandardRequirement]{Item: c, Score: CosineSimilarity(queryVector, vectors[i])}
	}
	monitor.AfterScoring(scored)

	results := RankWithScores(scored, s.threshold)
	s.logger.Debug("search complete", "candidates", len(live), "matches", len(results))
	monitor.Finish(results)

	return results, nil
}

// embed skips the embedder for text with no content; a nil vector scores 0
// against everything.
func (s *Searcher) embed(ctx context.Context, normalized string) ([]float32, error) {
	if normalized == "" {
		return nil, nil
	}
	return s.embedder.EmbedText(ctx, normalized)
}

// embedCandidates embeds every candidate description on the worker pool.
// vectors[i] always belongs to candidates[i], whatever the completion order.
func (s *Searcher) embedCandidates(ctx context.Context, candidates []*core.StandardRequirement) ([][]float32, error) {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		if workCtx.Err() != nil {
			break
		}
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := workCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			vector, err := s.embed(workCtx, Normalize(candidate.Description))
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			vectors[i] = vector
		})
		if err != nil {
			wg.Done()
			errs[i] = err
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i, err := firstFailure(errs); err != nil {
		s.logger.Error("error generating embedding for candidate", "referenceId", candidates[i].ReferenceID, "err", err)
		return nil, fmt.Errorf("embedding candidate %q: %w", candidates[i].ReferenceID, err)
	}
	return vectors, nil
}

// firstFailure returns the lowest-index error, preferring real failures over
// the cancellations they triggered in sibling tasks.
func firstFailure(errs []error) (int, error) {
	firstCanceled := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if firstCanceled < 0 {
				firstCanceled = i
			}
			continue
		}
		return i, err
	}
	if firstCanceled >= 0 {
		return firstCanceled, errs[firstCanceled]
	}
	return -1, nil
}

// Release frees the worker pool. The searcher should not be used afterwards.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
