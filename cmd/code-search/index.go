package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/code-search/internal/cache"
	"github.com/randalmurphy/code-search/internal/chunk"
	"github.com/randalmurphy/code-search/internal/indexer"
	"github.com/randalmurphy/code-search/internal/metrics"
	"github.com/randalmurphy/code-search/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("repository not found: %s", absPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	vs, embedder, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer vs.Close()

	// Extend an existing flat index rather than starting over.
	if cfg.Storage.Backend == "flat" || cfg.Storage.Backend == "" {
		if err := vs.Load(cfg.Storage.IndexPath); err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Warn("existing index unreadable, reindexing from scratch", "error", err)
		}
	}

	chunker := chunk.NewChunker(cfg.Chunking, slog.Default())
	idx := indexer.New(embedder, vs, cfg.Indexing, slog.Default())

	fmt.Printf("Indexing %s...\n", absPath)
	start := time.Now()

	result, err := idx.IndexRepo(ctx, absPath, chunker, cfg.Include, cfg.Exclude)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if cfg.Storage.Backend == "flat" || cfg.Storage.Backend == "" {
		if err := vs.Save(cfg.Storage.IndexPath); err != nil {
			return fmt.Errorf("failed to save index: %w", err)
		}
	}

	// Cached query results predate the new index contents.
	if cfg.Storage.RedisURL != "" {
		invalidateQueryCache(ctx, cfg.Storage.RedisURL)
	}

	logIndexRun(cfg.Logging.MetricsPath, absPath, result, time.Since(start))

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files processed: %d\n", result.FilesProcessed)
	fmt.Printf("  Chunks created:  %d\n", result.ChunksCreated)
	fmt.Printf("  Chunks indexed:  %d\n", result.ChunksIndexed)

	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %v\n", e)
		}
	}

	return nil
}

// invalidateQueryCache drops cached search results after a reindex. Cache
// trouble only costs freshness until the TTL expires, so failures warn
// rather than fail the indexing run.
func invalidateQueryCache(ctx context.Context, redisURL string) {
	queryCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		slog.Warn("Redis unavailable, stale cached results may be served", "error", err)
		return
	}
	defer queryCache.Close()

	if err := queryCache.Flush(ctx); err != nil {
		slog.Warn("query cache flush failed, stale cached results may be served", "error", err)
	}
}

func logIndexRun(metricsPath, root string, result *indexer.RepoResult, elapsed time.Duration) {
	if metricsPath == "" {
		return
	}
	logger, err := metrics.NewLogger(metricsPath)
	if err != nil {
		slog.Warn("metrics log unavailable", "path", metricsPath, "error", err)
		return
	}
	defer logger.Close()
	logger.LogIndex(root, result.FilesProcessed, result.ChunksCreated, result.ChunksIndexed, elapsed.Milliseconds())
}
