package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/reqmatch/ai/cache"
	"github.com/poiesic/reqmatch/ai/mock"
	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
	"github.com/poiesic/reqmatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedder implements ai.Embedder for testing
type testEmbedder struct {
	shouldError bool

	mu      sync.Mutex
	batches [][]string
}

func (m *testEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *testEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.shouldError {
		return nil, errors.New("embedder error")
	}
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()

	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{float32(i) * 0.1, float32(i) * 0.2, float32(i) * 0.3}
	}
	return result, nil
}

func (m *testEmbedder) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func setupTestRepositories(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestEmbeddingProcessor_Process(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Requirements.AddRequirements(ctx,
		&core.Requirement{ReferenceID: "R1", Description: "Encrypt data, at rest!"},
		&core.Requirement{ReferenceID: "R2", Description: "encrypt data at rest"},
		&core.Requirement{ReferenceID: "R3", Description: "???"},
		&core.Requirement{ReferenceID: "R4", Description: "Passwords expire"},
	)
	require.NoError(t, err)

	embedder := &testEmbedder{}
	ep, err := newEmbeddingProcessor(repos.Requirements, embedder, 10, nil)
	require.NoError(t, err)

	require.NoError(t, ep.process(ctx, "R1", "R2", "R3", "R4"))

	// Normalized, deduplicated, empty text skipped.
	assert.Equal(t, []string{"encrypt data at rest", "passwords expire"}, embedder.texts())
}

func TestEmbeddingProcessor_Process_Batches(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	ids := []string{"A", "B", "C", "D", "E"}
	for _, id := range ids {
		_, err := repos.Requirements.AddRequirements(ctx, &core.Requirement{ReferenceID: id, Description: "text " + id})
		require.NoError(t, err)
	}

	embedder := &testEmbedder{}
	ep, err := newEmbeddingProcessor(repos.Requirements, embedder, 2, nil)
	require.NoError(t, err)

	require.NoError(t, ep.process(ctx, ids...))
	require.Len(t, embedder.batches, 3)
	assert.Len(t, embedder.batches[2], 1)
}

func TestEmbeddingProcessor_Process_EmbedderError(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Requirements.AddRequirements(ctx, &core.Requirement{ReferenceID: "R1", Description: "Test"})
	require.NoError(t, err)

	ep, err := newEmbeddingProcessor(repos.Requirements, &testEmbedder{shouldError: true}, 10, nil)
	require.NoError(t, err)

	err = ep.process(ctx, "R1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder error")
}

func TestEmbeddingProcessor_Process_MissingRequirement(t *testing.T) {
	repos := setupTestRepositories(t)

	ep, err := newEmbeddingProcessor(repos.Requirements, &testEmbedder{}, 10, nil)
	require.NoError(t, err)

	err = ep.process(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewPipeline(t *testing.T) {
	repos := setupTestRepositories(t)
	embedder := &testEmbedder{}

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.embeddingPool)
		assert.NotNil(t, pipeline.embeddingProc)
		assert.Equal(t, DefaultBatchSize, pipeline.batchSize)
	})

	t.Run("nil standard repository", func(t *testing.T) {
		_, err := NewPipeline(nil, repos.Requirements, embedder)
		assert.Equal(t, ErrStandardRepositoryRequired, err)
	})

	t.Run("nil requirement repository", func(t *testing.T) {
		_, err := NewPipeline(repos.Standards, nil, embedder)
		assert.Equal(t, ErrRequirementRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(repos.Standards, repos.Requirements, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	repos := setupTestRepositories(t)
	embedder := &testEmbedder{}

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder, WithPoolSize(4))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 4, pipeline.embeddingPool.Cap())
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 1, pipeline.embeddingPool.Cap())
	})

	t.Run("with batch size", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder, WithBatchSize(8))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 8, pipeline.batchSize)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder, WithLogger(nil))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.logger)
	})
}

func TestPipeline_Ingest(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	inner := mock.NewMockEmbedder()
	embedder := cache.NewEmbedder(inner, repos.Embeddings, "mock")

	pipeline, err := NewPipeline(repos.Standards, repos.Requirements, embedder, WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	standards := []*core.Standard{
		{ID: "ISO", RefID: "iso-27001"},
		{ID: "NIST", RefID: "nist-800-53"},
	}
	requirements := []*core.Requirement{
		{ReferenceID: "ISO-1", Description: "Encrypt data at rest"},
		{ReferenceID: "NIST-1", Description: "Require multi-factor login"},
	}

	result, err := pipeline.Ingest(ctx, standards, requirements)
	require.NoError(t, err)
	assert.Equal(t, &Result{Standards: 2, Requirements: 2}, result)
	require.NoError(t, pipeline.Wait())

	t.Run("load order preserved", func(t *testing.T) {
		stored, err := repos.Standards.GetStandards(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "ISO", stored[0].ID)
		assert.Equal(t, "NIST", stored[1].ID)
	})

	t.Run("cache warmed with normalized descriptions", func(t *testing.T) {
		count, err := repos.Embeddings.CountEmbeddings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		_, err = repos.Embeddings.GetEmbedding(ctx, embedder.Key("encrypt data at rest"))
		assert.NoError(t, err)
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		_, err := pipeline.Ingest(ctx, nil, []*core.Requirement{{ReferenceID: "ISO-1"}})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("no records", func(t *testing.T) {
		result, err := pipeline.Ingest(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, &Result{}, result)
	})
}

func TestPipeline_Ingest_ValidatesFirst(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	pipeline, err := NewPipeline(repos.Standards, repos.Requirements, &testEmbedder{})
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Ingest(ctx,
		[]*core.Standard{{ID: "ISO"}},
		[]*core.Requirement{{ReferenceID: "ISO-1"}, {ReferenceID: "  "}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRequirement)

	count, err := repos.Standards.CountStandards(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_Ingest_DuplicatesRejectedBeforeWrite(t *testing.T) {
	tests := []struct {
		name   string
		atomic bool
	}{
		{name: "separate writes", atomic: false},
		{name: "catalogue writer", atomic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := setupTestRepositories(t)
			ctx := context.Background()

			var opts []Option
			if tt.atomic {
				opts = append(opts, WithCatalogueWriter(repos))
			}
			pipeline, err := NewPipeline(repos.Standards, repos.Requirements, &testEmbedder{}, opts...)
			require.NoError(t, err)
			defer pipeline.Release()

			_, err = pipeline.Ingest(ctx,
				[]*core.Standard{{ID: "A", RefID: "S-A"}},
				[]*core.Requirement{{ReferenceID: "A1"}, {ReferenceID: "A1"}},
			)
			require.Error(t, err)
			assert.ErrorIs(t, err, storage.ErrDuplicateKey)

			count, err := repos.Standards.CountStandards(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)

			result, err := pipeline.Ingest(ctx,
				[]*core.Standard{{ID: "A", RefID: "S-A"}},
				[]*core.Requirement{{ReferenceID: "A1", Description: "text"}},
			)
			require.NoError(t, err)
			assert.Equal(t, &Result{Standards: 1, Requirements: 1}, result)
			require.NoError(t, pipeline.Wait())
		})
	}
}

func TestPipeline_Ingest_StoredDuplicateRejectedBeforeWrite(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Requirements.AddRequirements(ctx, &core.Requirement{ReferenceID: "A1"})
	require.NoError(t, err)

	pipeline, err := NewPipeline(repos.Standards, repos.Requirements, &testEmbedder{})
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Ingest(ctx,
		[]*core.Standard{{ID: "A"}, {ID: "A"}},
		[]*core.Requirement{{ReferenceID: "A1"}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Contains(t, err.Error(), `standard "A" repeated in batch`)
	assert.Contains(t, err.Error(), `requirement "A1"`)

	count, err := repos.Standards.CountStandards(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_WaitReportsWarmupErrors(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	pipeline, err := NewPipeline(repos.Standards, repos.Requirements, &testEmbedder{shouldError: true})
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, nil, []*core.Requirement{{ReferenceID: "R1", Description: "text"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requirements)

	err = pipeline.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder error")

	assert.NoError(t, pipeline.Wait())
}

func TestPipeline_Release(t *testing.T) {
	repos := setupTestRepositories(t)

	pipeline, err := NewPipeline(repos.Standards, repos.Requirements, &testEmbedder{})
	require.NoError(t, err)

	// Release should not panic
	pipeline.Release()

	// Multiple releases should not panic
	pipeline.Release()
}
