package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/reqmatch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocuments struct {
	calls int
	err   error

	// vectors, when set, is returned as-is instead of computed vectors.
	vectors [][]float32
}

func (f *fakeDocuments) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeDocuments) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func TestEmbedder_EmbedText(t *testing.T) {
	fake := &fakeDocuments{}
	e := newEmbedderWith(fake, ai.NewConfig())

	vec, err := e.EmbedText(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, vec)
}

func TestEmbedder_EmbedTextsPreservesOrder(t *testing.T) {
	fake := &fakeDocuments{}
	e := newEmbedderWith(fake, ai.NewConfig())

	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "abc", "ab"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(3), vecs[1][0])
	assert.Equal(t, float32(2), vecs[2][0])
}

func TestEmbedder_PropagatesUpstreamError(t *testing.T) {
	upstream := errors.New("connection refused")
	e := newEmbedderWith(&fakeDocuments{err: upstream}, ai.NewConfig())

	_, err := e.EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestEmbedder_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeDocuments{err: errors.New("boom")}
	e := newEmbedderWith(fake, ai.NewConfig(ai.WithBreaker(2, time.Minute)))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.EmbedText(ctx, "text")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := e.EmbedText(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, fake.calls, "open breaker must not reach upstream")
}

func TestEmbedder_BreakerDisabled(t *testing.T) {
	fake := &fakeDocuments{err: errors.New("boom")}
	e := newEmbedderWith(fake, ai.NewConfig(ai.WithBreaker(0, 0)))

	for i := 0; i < 10; i++ {
		_, err := e.EmbedText(context.Background(), "text")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, 10, fake.calls)
}

func TestEmbedder_EmptyUpstreamResponse(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		texts   []string
	}{
		{name: "no vectors", vectors: [][]float32{}, texts: []string{"text"}},
		{name: "empty vector", vectors: [][]float32{{}}, texts: []string{"text"}},
		{name: "fewer vectors than texts", vectors: [][]float32{{1, 2}}, texts: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmbedderWith(&fakeDocuments{vectors: tt.vectors}, ai.NewConfig())

			_, err := e.EmbedTexts(context.Background(), tt.texts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEmptyEmbedding)
		})
	}

	t.Run("single text", func(t *testing.T) {
		e := newEmbedderWith(&fakeDocuments{vectors: [][]float32{}}, ai.NewConfig())

		vec, err := e.EmbedText(context.Background(), "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyEmbedding)
		assert.Nil(t, vec)
	})
}

func TestEmbedder_CancelledCallsDoNotTripBreaker(t *testing.T) {
	fake := &fakeDocuments{}
	e := newEmbedderWith(fake, ai.NewConfig(ai.WithBreaker(2, time.Minute)))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := e.EmbedText(cancelled, "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	}

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	_, err := e.EmbedText(expired, "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	vec, err := e.EmbedText(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, vec)
	assert.Equal(t, 7, fake.calls)
}
