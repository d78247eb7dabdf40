package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/ai/cache"
	"github.com/poiesic/reqmatch/ai/hashing"
	"github.com/poiesic/reqmatch/ai/mock"
	"github.com/poiesic/reqmatch/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration_FullReembeddingWorkflow rebuilds the cache and checks that
// a subsequent search is served entirely from it.
func TestIntegration_FullReembeddingWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repos := setupTestDB(t)
	ctx := context.Background()
	seedRequirements(t, repos, 50)

	inner := mock.NewMockEmbedder()
	embedder := cache.NewEmbedder(inner, repos.Embeddings, "mock")

	var buf bytes.Buffer
	config := &Config{BatchSize: 10, ReportInterval: 10, MaxRetries: 3, RetryDelay: 10 * time.Millisecond}
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, embedder, config, &buf, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Embedded)
	assert.Equal(t, 5, inner.CallCount(), "one embedder call per batch")

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)

	searcher, err := search.NewSearcher(embedder, search.WithPoolSize(4))
	require.NoError(t, err)
	defer searcher.Release()

	candidates, err := repos.Requirements.GetRequirements(ctx)
	require.NoError(t, err)
	inner.Reset()

	_, err = searcher.FindSimilar(ctx, "requirement number 7", candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, inner.CallCount(), "query and candidates should all be cached")
}

// TestIntegration_ModelSwitch reembeds with a different model and checks
// that the purge removes vectors keyed under the old one.
func TestIntegration_ModelSwitch(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	seedRequirements(t, repos, 5)

	old := cache.NewEmbedder(mock.NewMockEmbedder(), repos.Embeddings, "mock")
	_, err := old.Warm(ctx, []string{"requirement number 0", "stale text"})
	require.NoError(t, err)

	provider := hashing.NewProvider(ai.NewConfig(ai.WithDimensions(64)))
	current := cache.NewEmbedder(provider.Embedder(), repos.Embeddings, provider.ModelID())

	config := DefaultConfig()
	config.Purge = true
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, current, config, nil, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Purged)

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = repos.Embeddings.GetEmbedding(ctx, current.Key("requirement number 3"))
	assert.NoError(t, err)
	_, err = repos.Embeddings.GetEmbedding(ctx, old.Key("stale text"))
	assert.Error(t, err)
}

// TestIntegration_IdempotentReembedding runs twice and expects the same cache.
func TestIntegration_IdempotentReembedding(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	reqs := seedRequirements(t, repos, 8)

	embedder := cache.NewEmbedder(mock.NewMockEmbedder(), repos.Embeddings, "mock")
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, embedder, testConfig(), nil, nil)
	require.NoError(t, err)

	_, err = reembedder.Run(ctx)
	require.NoError(t, err)
	key := embedder.Key(search.Normalize(reqs[3].Description))
	first, err := repos.Embeddings.GetEmbedding(ctx, key)
	require.NoError(t, err)

	_, err = reembedder.Run(ctx)
	require.NoError(t, err)
	second, err := repos.Embeddings.GetEmbedding(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(reqs), count)
}
