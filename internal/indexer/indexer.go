// Package indexer batches chunks through embedding generation and vector
// store insertion, and drives the repository indexing pipeline.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphy/code-search/internal/chunk"
	"github.com/randalmurphy/code-search/internal/embedding"
	"github.com/randalmurphy/code-search/internal/parser"
	"github.com/randalmurphy/code-search/internal/store"
)

// Config tunes indexing throughput.
type Config struct {
	// BatchSize is the number of chunks per embedding request.
	BatchSize int `yaml:"batch_size"`
	// Workers bounds how many embedding batches are in flight at once.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns indexing defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize: 32,
		Workers:   4,
	}
}

// Indexer writes chunks into a vector store via an embedding provider. Both
// collaborators are long-lived and constructed by the caller.
type Indexer struct {
	embedder embedding.Embedder
	store    store.VectorStore
	cfg      Config
	logger   *slog.Logger
}

// New creates an indexer. Zero config fields fall back to defaults.
func New(embedder embedding.Embedder, vs store.VectorStore, cfg Config, logger *slog.Logger) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		embedder: embedder,
		store:    vs,
		cfg:      cfg,
		logger:   logger,
	}
}

// Index embeds chunks in concurrent batches and performs one store insert
// with the chunks that embedded successfully, preserving the pairing of each
// vector with its chunk. Chunks whose embedding fails are dropped from this
// run without aborting sibling batches; the return value is how many chunks
// made it into the store.
func (idx *Indexer) Index(ctx context.Context, chunks []chunk.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	batches := splitBatches(chunks, idx.cfg.BatchSize)
	vectorsByBatch := make([][][]float32, len(batches))

	g := new(errgroup.Group)
	g.SetLimit(idx.cfg.Workers)

	for i, batch := range batches {
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, c := range batch {
				texts[j] = c.Content
			}

			vectors, err := idx.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				// Partial-failure tolerance: this batch is lost, siblings proceed.
				idx.logger.Warn("embedding batch failed, dropping its chunks",
					"batch", i, "chunks", len(batch), "error", err)
				return nil
			}
			vectorsByBatch[i] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var vectors [][]float32
	var indexed []chunk.Chunk
	for i, batch := range batches {
		batchVectors := vectorsByBatch[i]
		if batchVectors == nil {
			continue
		}
		for j, c := range batch {
			if j < len(batchVectors) && batchVectors[j] != nil {
				vectors = append(vectors, batchVectors[j])
				indexed = append(indexed, c)
			}
		}
	}

	if len(indexed) == 0 {
		idx.logger.Warn("no chunks produced embeddings", "input", len(chunks))
		return 0, nil
	}

	if err := idx.store.Insert(ctx, vectors, indexed); err != nil {
		return 0, fmt.Errorf("store insert: %w", err)
	}

	idx.logger.Info("indexed chunks", "indexed", len(indexed), "dropped", len(chunks)-len(indexed))
	return len(indexed), nil
}

func splitBatches(chunks []chunk.Chunk, size int) [][]chunk.Chunk {
	var batches [][]chunk.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// RepoResult contains statistics from a repository indexing run.
type RepoResult struct {
	FilesProcessed int
	ChunksCreated  int
	ChunksIndexed  int
	Errors         []error
}

// IndexRepo walks a repository, chunks every recognized source file, and
// indexes the result. Per-file failures are collected and reported, not
// fatal; unreadable or unparseable files never abort the run.
func (idx *Indexer) IndexRepo(ctx context.Context, root string, chunker *chunk.Chunker, includes, excludes []string) (*RepoResult, error) {
	result := &RepoResult{}
	var allChunks []chunk.Chunk

	walker := NewWalker(includes, excludes)
	err := walker.Walk(root, func(path string) error {
		source, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", path, err))
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		language, ok := parser.DetectLanguage(relPath)
		if !ok {
			return nil
		}

		chunks := chunker.Chunk(string(source), language, filepath.ToSlash(relPath))
		allChunks = append(allChunks, chunks...)
		result.FilesProcessed++

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk failed: %w", err)
	}

	result.ChunksCreated = len(allChunks)
	if len(allChunks) == 0 {
		return result, nil
	}

	indexed, err := idx.Index(ctx, allChunks)
	if err != nil {
		return result, err
	}
	result.ChunksIndexed = indexed

	return result, nil
}
