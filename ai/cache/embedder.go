// Package cache persists embeddings so unchanged text is embedded once.
//
// Vectors are keyed by core.IDFromContent(modelID + "|" + text): switching
// models never serves a stale vector, and identical descriptions across the
// catalogue share one entry. Cache failures are logged and bypassed; they
// never fail an embedding call that the upstream embedder can serve.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// Embedder decorates an ai.Embedder with a persistent cache.
type Embedder struct {
	inner   ai.Embedder
	repo    storage.EmbeddingRepository
	modelID string
	logger  *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEmbedder wraps inner. modelID must identify the vectors inner produces.
func NewEmbedder(inner ai.Embedder, repo storage.EmbeddingRepository, modelID string, opts ...Option) *Embedder {
	e := &Embedder{
		inner:   inner,
		repo:    repo,
		modelID: modelID,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "embedding-cache", "model", modelID)
	return e
}

// Key returns the cache key for text.
func (e *Embedder) Key(text string) core.ID {
	return core.IDFromContent(e.modelID + "|" + text)
}

// EmbedText returns the cached vector for text, embedding and caching it on a miss.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := e.Key(text)
	if vector, ok := e.lookup(ctx, key); ok {
		return vector, nil
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(ctx, map[core.ID][]float32{key: vector})
	return vector, nil
}

// EmbedTexts serves cached vectors and embeds the misses in one batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]core.ID, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = e.Key(text)
		if vector, ok := e.lookup(ctx, keys[i]); ok {
			out[i] = vector
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}
	e.logger.Debug("embedding cache misses", "hits", len(texts)-len(missTexts), "misses", len(missTexts))

	vectors, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(missTexts), len(vectors))
	}

	entries := make(map[core.ID][]float32, len(vectors))
	for j, i := range missIdx {
		out[i] = vectors[j]
		entries[keys[i]] = vectors[j]
	}
	e.store(ctx, entries)
	return out, nil
}

// Warm embeds and caches every text not already cached, returning the number embedded.
func (e *Embedder) Warm(ctx context.Context, texts []string) (int, error) {
	var misses []string
	seen := make(map[core.ID]struct{}, len(texts))
	for _, text := range texts {
		key := e.Key(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := e.lookup(ctx, key); !ok {
			misses = append(misses, text)
		}
	}
	if len(misses) == 0 {
		return 0, nil
	}
	if _, err := e.EmbedTexts(ctx, misses); err != nil {
		return 0, err
	}
	return len(misses), nil
}

// Refresh embeds texts with the upstream embedder, bypassing cached entries,
// and overwrites the cache. Unlike the embedding methods it reports write
// failures.
func (e *Embedder) Refresh(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	vectors, err := e.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
	}
	entries := make(map[core.ID][]float32, len(texts))
	for i, text := range texts {
		entries[e.Key(text)] = vectors[i]
	}
	return e.repo.PutEmbeddings(ctx, entries)
}

func (e *Embedder) lookup(ctx context.Context, key core.ID) ([]float32, bool) {
	vector, err := e.repo.GetEmbedding(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("embedding cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	return vector, true
}

func (e *Embedder) store(ctx context.Context, entries map[core.ID][]float32) {
	if err := e.repo.PutEmbeddings(ctx, entries); err != nil {
		e.logger.Warn("embedding cache write failed", "count", len(entries), "err", err)
	}
}
