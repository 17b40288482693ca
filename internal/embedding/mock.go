package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sync"
)

// Mock is a deterministic in-process embedder for tests. The same text
// always produces the same normalized vector. Individual texts can be made
// to fail via FailTexts, or every call via FailAll.
type Mock struct {
	Dim       int
	FailTexts map[string]bool
	FailAll   bool

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock embedder with the given dimension.
func NewMock(dim int) *Mock {
	return &Mock{Dim: dim}
}

// Embed returns a hash-derived vector for text.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.FailAll || m.FailTexts[text] {
		return nil, fmt.Errorf("%w: mock failure", ErrEmbeddingFailed)
	}
	return m.vectorFor(text), nil
}

// EmbedBatch returns one vector per text, with nil entries for texts marked
// as failing. FailAll fails the whole batch.
func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.FailAll {
		return nil, fmt.Errorf("%w: mock failure", ErrEmbeddingFailed)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailTexts[text] {
			continue
		}
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

// Dimension returns the mock's vector dimension.
func (m *Mock) Dimension() int {
	return m.Dim
}

// Model identifies the mock in logs and stats.
func (m *Mock) Model() string {
	return "mock"
}

// Calls returns how many Embed/EmbedBatch calls were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) vectorFor(text string) []float32 {
	hash := sha256.Sum256([]byte(text))

	vec := make([]float32, m.Dim)
	for i := range vec {
		vec[i] = float32(hash[i%len(hash)]) / 255.0
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec
}
