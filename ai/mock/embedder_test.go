package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "encrypt data at rest")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "encrypt data at rest")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimension)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, m.CallCount())
}

func TestMockEmbedder_InjectedFunc(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	})

	_, err := m.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Empty(t, m.Texts())
	_, err = m.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "text")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.CallCount())
	assert.Len(t, m.Texts(), 50)
}
