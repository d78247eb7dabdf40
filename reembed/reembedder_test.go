package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/reqmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder_RequiresCache(t *testing.T) {
	repos := setupTestDB(t)

	_, err := NewReembedder(repos.Requirements, repos.Embeddings, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrCacheRequired)
}

func TestReembedder_Run(t *testing.T) {
	repos := setupTestDB(t)
	seedRequirements(t, repos, 10)

	var buf bytes.Buffer
	refresher := &mockRefresher{}
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, refresher, testConfig(), &buf, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Stats{Requirements: 10, Embedded: 10}, stats)
	assert.Equal(t, 4, refresher.callCount(), "10 requirements in batches of 3")
	assert.Contains(t, buf.String(), "10/10", "should show completion")
	assert.Contains(t, buf.String(), "Reembedding complete")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repos := setupTestDB(t)

	var buf bytes.Buffer
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, &mockRefresher{}, DefaultConfig(), &buf, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Requirements)
	assert.Contains(t, buf.String(), "0 requirements", "should report zero requirements")
}

func TestReembedder_Purge(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repos.Embeddings.PutEmbeddings(ctx, map[core.ID][]float32{
		core.IDFromContent("old|a"): {1},
		core.IDFromContent("old|b"): {2},
	}))

	config := testConfig()
	config.Purge = true
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, &mockRefresher{}, config, nil, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Purged)

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repos := setupTestDB(t)
	seedRequirements(t, repos, 10)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	refresher := &mockRefresher{
		refreshFunc: func(ctx context.Context, texts []string) error {
			calls++
			if calls == 2 {
				cancel()
			}
			return nil
		},
	}

	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, refresher, testConfig(), nil, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "should stop after the batch that canceled")
	assert.Equal(t, 6, stats.Embedded)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	repos := setupTestDB(t)
	seedRequirements(t, repos, 5)

	refresher := &mockRefresher{
		refreshFunc: func(ctx context.Context, texts []string) error {
			return errors.New("model unavailable")
		},
	}
	reembedder, err := NewReembedder(repos.Requirements, repos.Embeddings, refresher, testConfig(), nil, nil)
	require.NoError(t, err)

	_, err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch")
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultBatchSize, config.BatchSize)
	assert.Equal(t, 100, config.ReportInterval)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.RetryDelay)
	assert.False(t, config.Purge)
}
