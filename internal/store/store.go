// Package store provides vector storage backends for code chunks.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphy/code-search/internal/chunk"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the
	// store's configured dimension. The triggering call makes no changes.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNotFound is returned when loading from a path with no index artifacts.
	ErrNotFound = errors.New("index not found")
	// ErrCorruptIndex is returned when persisted artifacts cannot be decoded.
	ErrCorruptIndex = errors.New("corrupt index")
)

// Filter is an exact-match constraint on chunk metadata. A candidate matches
// iff every key resolves to a known metadata field with an equal value;
// absent keys and mismatches both exclude the candidate.
type Filter map[string]string

// Matches reports whether metadata satisfies every filter entry.
func (f Filter) Matches(meta chunk.Metadata) bool {
	for key, want := range f {
		got, ok := meta.Value(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Candidate is one similarity-search hit. Distance is the raw L2 distance
// from the query vector; lower means more similar.
type Candidate struct {
	Chunk    chunk.Chunk
	Distance float64
}

// Stats describes store contents. MetadataCount always equals TotalVectors
// for a consistent store.
type Stats struct {
	TotalVectors  int `json:"total_vectors"`
	Dimension     int `json:"dimension"`
	MetadataCount int `json:"metadata_count"`
}

// VectorStore is the storage contract shared by the local flat index and the
// remote Qdrant backend. Callers never branch on the backend type.
//
// Insert is single-writer: at most one call may be in flight. Searches are
// safe to run concurrently with each other but not with Insert, Save, or
// Load; implementations guard this internally.
type VectorStore interface {
	// Insert appends vectors with their chunks' metadata, positionally
	// parallel. Any dimension violation fails the whole call before any
	// vector is stored.
	Insert(ctx context.Context, vectors [][]float32, chunks []chunk.Chunk) error

	// Search returns up to k candidates ordered by ascending distance. An
	// empty store returns an empty result without error. When a filter is
	// given the store examines a widened raw neighborhood before filtering
	// so matching records are not starved out by near non-matches.
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]Candidate, error)

	// Save persists the index, metadata, id lookup, and dimension as one
	// unit. Load restores them, replacing current contents; it fails with
	// ErrNotFound or ErrCorruptIndex rather than partially populating.
	Save(path string) error
	Load(path string) error

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string // "flat" (default) or "qdrant"
	Dimension  int
	QdrantURL  string
	Collection string
}

// New creates a vector store for the configured backend.
func New(ctx context.Context, opts Options) (VectorStore, error) {
	switch opts.Backend {
	case "flat", "":
		return NewFlatStore(opts.Dimension)
	case "qdrant":
		return NewQdrantStore(ctx, opts.QdrantURL, opts.Collection, opts.Dimension)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: flat, qdrant)", opts.Backend)
	}
}
