package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/code-search/internal/cache"
	"github.com/randalmurphy/code-search/internal/metrics"
	"github.com/randalmurphy/code-search/internal/retriever"
	"github.com/randalmurphy/code-search/internal/search"
	"github.com/randalmurphy/code-search/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index by meaning",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var (
	searchLanguage string
	searchType     string
	searchName     string
	searchLimit    int
	searchContext  int
)

func init() {
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "Filter by source language")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Filter by chunk type: function, class, module_level, line_based")
	searchCmd.Flags().StringVar(&searchName, "name", "", "Filter by unit name")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results to return")
	searchCmd.Flags().IntVar(&searchContext, "context", 0, "Surrounding lines to suggest per result")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

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

	if cfg.Storage.Backend == "flat" || cfg.Storage.Backend == "" {
		if err := vs.Load(cfg.Storage.IndexPath); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no index found at %s, run 'code-search index <path>' first", cfg.Storage.IndexPath)
			}
			return fmt.Errorf("failed to load index: %w", err)
		}
	}

	r := retriever.New(vs, embedder, cfg.Retrieval, slog.Default())

	var queryCache *cache.RedisCache
	if cfg.Storage.RedisURL != "" {
		queryCache, err = cache.NewRedisCache(cfg.Storage.RedisURL)
		if err != nil {
			slog.Warn("Redis cache unavailable, continuing without cache", "error", err)
		} else {
			defer queryCache.Close()
		}
	}

	var metricsLogger *metrics.Logger
	if cfg.Logging.MetricsPath != "" {
		metricsLogger, err = metrics.NewLogger(cfg.Logging.MetricsPath)
		if err != nil {
			slog.Warn("metrics log unavailable", "error", err)
		} else {
			defer metricsLogger.Close()
		}
	}

	ttl := time.Duration(cfg.Cache.QueryTTLMinutes) * time.Minute
	engine := search.NewEngine(r, queryCache, metricsLogger, ttl, slog.Default())

	results, err := engine.Search(ctx, query, search.Options{
		Language:      searchLanguage,
		Type:          searchType,
		Name:          searchName,
		Limit:         searchLimit,
		ContextWindow: searchContext,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	printResults(results)
	return nil
}

func printResults(results []retriever.Result) {
	for i, r := range results {
		meta := r.Chunk.Meta
		fmt.Printf("%d. %s (score %.3f)\n", i+1, r.Explanation, r.Score)
		fmt.Printf("   %s:%d-%d\n", meta.FilePath, meta.StartLine+1, meta.EndLine+1)
		fmt.Println(indent(r.Chunk.Content, "   | "))
		fmt.Println()
	}
}

func indent(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
