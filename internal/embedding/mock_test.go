package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDeterministic(t *testing.T) {
	m := NewMock(16)
	ctx := context.Background()

	a, err := m.Embed(ctx, "def add(a, b): return a + b")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "def add(a, b): return a + b")
	require.NoError(t, err)
	c, err := m.Embed(ctx, "def sub(a, b): return a - b")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)

	// Vectors are normalized.
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockBatchPartialFailure(t *testing.T) {
	m := NewMock(8)
	m.FailTexts = map[string]bool{"bad": true}

	vectors, err := m.EmbedBatch(context.Background(), []string{"good", "bad", "also good"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.NotNil(t, vectors[0])
	assert.Nil(t, vectors[1])
	assert.NotNil(t, vectors[2])
}

func TestMockFailAll(t *testing.T) {
	m := NewMock(8)
	m.FailAll = true

	_, err := m.Embed(context.Background(), "anything")
	require.ErrorIs(t, err, ErrEmbeddingFailed)

	_, err = m.EmbedBatch(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, ErrEmbeddingFailed)
}
