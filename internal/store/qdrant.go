package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/randalmurphy/code-search/internal/chunk"
)

// QdrantStore is the remote managed backend. The collection is created with
// euclidean distance so search results carry the same ascending-distance
// semantics as the flat backend.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dim        int
	logger     *slog.Logger
}

// NewQdrantStore connects to Qdrant and ensures the collection exists with
// the given vector dimension.
func NewQdrantStore(ctx context.Context, url, collection string, dimension int) (*QdrantStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}

	host, port := splitHostPort(url)
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	s := &QdrantStore{
		client:     client,
		collection: collection,
		dim:        dimension,
		logger:     slog.Default(),
	}

	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

// splitHostPort accepts "host", "host:port", or "scheme://host:port" and
// returns the gRPC host and port, defaulting the port to 6334.
func splitHostPort(url string) (string, int) {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	port := 6334
	if i := strings.LastIndex(host, ":"); i >= 0 {
		if p, err := strconv.Atoi(host[i+1:]); err == nil {
			host, port = host[:i], p
		}
	}
	if host == "" {
		host = "localhost"
	}
	return host, port
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dim),
			Distance: qdrant.Distance_Euclid,
		}),
	})
}

// Insert upserts vectors with their chunk payloads. Dimensions are validated
// client-side before any point is sent.
func (s *QdrantStore) Insert(ctx context.Context, vectors [][]float32, chunks []chunk.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vectors and chunks length mismatch: %d != %d", len(vectors), len(chunks))
	}
	for i, vec := range vectors {
		if len(vec) != s.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, store expects %d",
				ErrDimensionMismatch, i, len(vec), s.dim)
		}
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(c.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(chunkPayload(c)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}

	return nil
}

// Search delegates similarity search and filtering to Qdrant. No client-side
// widening is needed; the server filters before ranking.
func (s *QdrantStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Candidate, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, r := range results {
		candidates[i] = Candidate{
			Chunk:    payloadToChunk(r.Payload),
			Distance: float64(r.Score),
		}
	}

	return candidates, nil
}

// Save is a logged no-op: the index lives server-side.
func (s *QdrantStore) Save(path string) error {
	s.logger.Debug("qdrant collection is persisted server-side, nothing to save",
		"collection", s.collection)
	return nil
}

// Load is a logged no-op: the index lives server-side.
func (s *QdrantStore) Load(path string) error {
	s.logger.Debug("qdrant collection is persisted server-side, nothing to load",
		"collection", s.collection)
	return nil
}

// Stats reads collection info from the server.
func (s *QdrantStore) Stats(ctx context.Context) (Stats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return Stats{}, fmt.Errorf("collection info: %w", err)
	}

	count := 0
	if info.PointsCount != nil {
		count = int(*info.PointsCount)
	}

	dim := s.dim
	if params := info.Config.GetParams(); params != nil {
		if vecConfig := params.GetVectorsConfig(); vecConfig != nil {
			if vecParams := vecConfig.GetParams(); vecParams != nil {
				dim = int(vecParams.GetSize())
			}
		}
	}

	return Stats{TotalVectors: count, Dimension: dim, MetadataCount: count}, nil
}

// Close closes the client connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID maps a chunk ID onto a deterministic UUID, since Qdrant only
// accepts UUID or integer point IDs. The original chunk ID travels in the
// payload.
func pointID(chunkID string) string {
	h := sha256.Sum256([]byte(chunkID))
	return fmt.Sprintf("%x-%x-%x-%x-%x", h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
}

func chunkPayload(c chunk.Chunk) map[string]interface{} {
	return map[string]interface{}{
		"id":           c.ID,
		"content":      c.Content,
		"file_path":    c.Meta.FilePath,
		"language":     c.Meta.Language,
		"type":         string(c.Meta.Type),
		"name":         c.Meta.Name,
		"start_line":   c.Meta.StartLine,
		"end_line":     c.Meta.EndLine,
		"char_count":   c.Meta.CharCount,
		"chunk_number": c.Meta.ChunkNumber,
	}
}

func buildFilter(filter Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}

	var must []*qdrant.Condition
	for key, value := range filter {
		if n, err := strconv.Atoi(value); err == nil && isIntegerField(key) {
			must = append(must, qdrant.NewMatchInt(key, int64(n)))
			continue
		}
		must = append(must, qdrant.NewMatch(key, value))
	}

	return &qdrant.Filter{Must: must}
}

func isIntegerField(key string) bool {
	switch key {
	case "start_line", "end_line", "char_count", "chunk_number":
		return true
	}
	return false
}

func payloadToChunk(payload map[string]*qdrant.Value) chunk.Chunk {
	getString := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	getInt := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}

	return chunk.Chunk{
		ID:      getString("id"),
		Content: getString("content"),
		Meta: chunk.Metadata{
			FilePath:    getString("file_path"),
			Language:    getString("language"),
			Type:        chunk.Type(getString("type")),
			Name:        getString("name"),
			StartLine:   getInt("start_line"),
			EndLine:     getInt("end_line"),
			CharCount:   getInt("char_count"),
			ChunkNumber: getInt("chunk_number"),
		},
	}
}
