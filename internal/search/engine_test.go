package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/code-search/internal/chunk"
	"github.com/randalmurphy/code-search/internal/embedding"
	"github.com/randalmurphy/code-search/internal/retriever"
	"github.com/randalmurphy/code-search/internal/store"
)

type stubStore struct {
	candidates []store.Candidate
	err        error
	lastFilter store.Filter
}

func (s *stubStore) Insert(ctx context.Context, vectors [][]float32, chunks []chunk.Chunk) error {
	return nil
}

func (s *stubStore) Search(ctx context.Context, query []float32, k int, filter store.Filter) ([]store.Candidate, error) {
	s.lastFilter = filter
	return s.candidates, s.err
}

func (s *stubStore) Save(path string) error { return nil }
func (s *stubStore) Load(path string) error { return nil }
func (s *stubStore) Stats(ctx context.Context) (store.Stats, error) {
	return store.Stats{}, nil
}
func (s *stubStore) Close() error { return nil }

func newEngine(s store.VectorStore) *Engine {
	r := retriever.New(s, embedding.NewMock(8), retriever.DefaultConfig(), nil)
	return NewEngine(r, nil, nil, 0, nil)
}

func searchCandidate(name string, typ chunk.Type, distance float64) store.Candidate {
	return store.Candidate{
		Chunk: chunk.New("def "+name+"(): pass", chunk.Metadata{
			FilePath: "app.py",
			Language: "python",
			Type:     typ,
			Name:     name,
		}),
		Distance: distance,
	}
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, buildFilter(Options{}))

	filter := buildFilter(Options{Language: "python", Type: "function", Name: "add"})
	assert.Equal(t, store.Filter{
		"language": "python",
		"type":     "function",
		"name":     "add",
	}, filter)

	assert.Equal(t, store.Filter{"language": "go"}, buildFilter(Options{Language: "go"}))
}

func TestSearchReturnsRankedResults(t *testing.T) {
	s := &stubStore{candidates: []store.Candidate{
		searchCandidate("near", chunk.TypeFunction, 0.1),
		searchCandidate("far", chunk.TypeFunction, 3.0),
	}}

	results, err := newEngine(s).Search(context.Background(), "query", Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.Meta.Name)
}

func TestSearchAppliesFilterOptions(t *testing.T) {
	s := &stubStore{}

	_, err := newEngine(s).Search(context.Background(), "query", Options{Language: "go", Type: "function"})
	require.NoError(t, err)
	assert.Equal(t, store.Filter{"language": "go", "type": "function"}, s.lastFilter)
}

func TestSearchLimit(t *testing.T) {
	s := &stubStore{candidates: []store.Candidate{
		searchCandidate("a", chunk.TypeFunction, 0.1),
		searchCandidate("b", chunk.TypeFunction, 0.2),
		searchCandidate("c", chunk.TypeFunction, 0.3),
	}}

	results, err := newEngine(s).Search(context.Background(), "query", Options{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchStoreError(t *testing.T) {
	s := &stubStore{err: errors.New("backend down")}

	_, err := newEngine(s).Search(context.Background(), "query", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestSearchEmptyIndex(t *testing.T) {
	results, err := newEngine(&stubStore{}).Search(context.Background(), "query", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
