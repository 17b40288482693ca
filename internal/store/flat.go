package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/randalmurphy/code-search/internal/chunk"
)

const (
	indexFileName    = "index.bin"
	metadataFileName = "metadata.json"

	// filterWidening is how many times k the raw scan examines before
	// applying a metadata filter, bounded by the store size.
	filterWidening = 10
)

// FlatStore is an in-memory flat L2 index with a positionally
// parallel chunk array and an id lookup. Search is brute force, which keeps
// results exact and suits indexes up to a few hundred thousand vectors.
type FlatStore struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []chunk.Chunk
	idToPos map[string]int
}

// NewFlatStore creates an empty flat store with a fixed vector dimension.
func NewFlatStore(dimension int) (*FlatStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &FlatStore{
		dim:     dimension,
		idToPos: make(map[string]int),
	}, nil
}

// Insert upserts vectors and their chunks. A chunk whose ID is already
// stored replaces that record in place instead of appending, so re-indexing
// identical content never grows the store or duplicates search results. The
// whole batch is validated before any mutation so a dimension violation
// never leaves a partial insert.
func (s *FlatStore) Insert(ctx context.Context, vectors [][]float32, chunks []chunk.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vectors and chunks length mismatch: %d != %d", len(vectors), len(chunks))
	}
	for i, vec := range vectors {
		if len(vec) != s.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, store expects %d",
				ErrDimensionMismatch, i, len(vec), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, vec := range vectors {
		if pos, ok := s.idToPos[chunks[i].ID]; ok && chunks[i].ID != "" {
			copy(s.vectors[pos], vec)
			s.chunks[pos] = chunks[i]
			continue
		}

		stored := make([]float32, s.dim)
		copy(stored, vec)

		pos := len(s.vectors)
		s.vectors = append(s.vectors, stored)
		s.chunks = append(s.chunks, chunks[i])
		if chunks[i].ID != "" {
			s.idToPos[chunks[i].ID] = pos
		}
	}

	return nil
}

// Search returns the k nearest stored vectors by L2 distance, closest first.
// With a filter, the raw neighborhood is widened before filtering so that k
// matching records are found whenever the store holds that many.
func (s *FlatStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Candidate, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.vectors) == 0 {
		return nil, nil
	}

	type scored struct {
		pos      int
		distance float64
	}
	scores := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		scores[i] = scored{pos: i, distance: l2Distance(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].distance < scores[j].distance
	})

	searchK := k
	if len(filter) > 0 {
		searchK = k * filterWidening
	}
	if searchK > len(scores) {
		searchK = len(scores)
	}

	results := make([]Candidate, 0, k)
	for _, sc := range scores[:searchK] {
		c := s.chunks[sc.pos]
		if len(filter) > 0 && !filter.Matches(c.Meta) {
			continue
		}
		results = append(results, Candidate{Chunk: c, Distance: sc.distance})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// l2Distance returns the squared euclidean distance, matching the ordering
// of a flat L2 index without the square root.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// persistedMetadata is the on-disk shape of everything except raw vectors.
type persistedMetadata struct {
	Dimension int           `json:"dimension"`
	Chunks    []chunk.Chunk `json:"chunks"`
}

// Save writes the index and metadata into dir as one unit. Both artifacts
// are written to temp files and renamed into place so a crash mid-save never
// leaves a half-written artifact behind.
func (s *FlatStore) Save(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	indexPath := filepath.Join(dir, indexFileName)
	if err := writeAtomic(indexPath, s.encodeVectors()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	meta, err := json.Marshal(persistedMetadata{Dimension: s.dim, Chunks: s.chunks})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, metadataFileName), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// Load replaces the store's contents with the artifacts in dir. Decoding
// happens into temporaries first; on any failure the store is unchanged.
func (s *FlatStore) Load(dir string) error {
	indexPath := filepath.Join(dir, indexFileName)
	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, indexPath)
		}
		return fmt.Errorf("read index: %w", err)
	}

	metaData, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(dir, metadataFileName))
		}
		return fmt.Errorf("read metadata: %w", err)
	}

	dim, vectors, err := decodeVectors(indexData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	var meta persistedMetadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return fmt.Errorf("%w: decode metadata: %v", ErrCorruptIndex, err)
	}

	if meta.Dimension != dim {
		return fmt.Errorf("%w: index dimension %d disagrees with metadata dimension %d",
			ErrCorruptIndex, dim, meta.Dimension)
	}
	if len(meta.Chunks) != len(vectors) {
		return fmt.Errorf("%w: %d vectors but %d metadata entries",
			ErrCorruptIndex, len(vectors), len(meta.Chunks))
	}

	idToPos := make(map[string]int, len(meta.Chunks))
	for i, c := range meta.Chunks {
		if c.ID != "" {
			idToPos[c.ID] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.vectors = vectors
	s.chunks = meta.Chunks
	s.idToPos = idToPos

	return nil
}

// Stats returns vector and metadata counts plus the configured dimension.
func (s *FlatStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalVectors:  len(s.vectors),
		Dimension:     s.dim,
		MetadataCount: len(s.chunks),
	}, nil
}

// Close is a no-op for the in-memory backend.
func (s *FlatStore) Close() error {
	return nil
}

// encodeVectors serializes dimension, count, then raw little-endian floats.
func (s *FlatStore) encodeVectors() []byte {
	out := make([]byte, 8+len(s.vectors)*s.dim*4)
	binary.LittleEndian.PutUint32(out[0:4], uint32(s.dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(s.vectors)))

	off := 8
	for _, vec := range s.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(out[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	return out
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("index header truncated: %d bytes", len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))

	if dim <= 0 {
		return 0, nil, fmt.Errorf("invalid dimension %d", dim)
	}
	want := 8 + n*dim*4
	if len(data) != want {
		return 0, nil, fmt.Errorf("index body has %d bytes, expected %d", len(data), want)
	}

	vectors := make([][]float32, n)
	off := 8
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}

	return dim, vectors, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
