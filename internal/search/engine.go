// Package search ties retrieval, caching, and metrics into one query path.
package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/randalmurphy/code-search/internal/cache"
	"github.com/randalmurphy/code-search/internal/metrics"
	"github.com/randalmurphy/code-search/internal/retriever"
	"github.com/randalmurphy/code-search/internal/store"
)

// Options narrows a search. Zero values apply no constraint.
type Options struct {
	// Language restricts results to one source language, e.g. "python".
	Language string
	// Type restricts results to one chunk type, e.g. "function".
	Type string
	// Name restricts results to chunks with this exact unit name.
	Name string
	// Limit caps the number of results. Zero keeps the retriever's default.
	Limit int
	// ContextWindow is how many surrounding lines to annotate per result.
	ContextWindow int
}

// Engine runs queries through the retriever with an optional Redis result
// cache in front and optional metrics behind. Both extras may be nil.
type Engine struct {
	retriever *retriever.Retriever
	cache     *cache.RedisCache
	metrics   *metrics.Logger
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewEngine creates a search engine. queryCache and metricsLogger are
// optional; a zero cacheTTL disables caching even when a cache is supplied.
func NewEngine(r *retriever.Retriever, queryCache *cache.RedisCache, metricsLogger *metrics.Logger, cacheTTL time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retriever: r,
		cache:     queryCache,
		metrics:   metricsLogger,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Search executes a query and returns ranked results. Cache failures degrade
// to uncached searches, never to errors.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]retriever.Result, error) {
	start := time.Now()
	filter := buildFilter(opts)

	if results, ok := e.cachedResults(ctx, query, filter); ok {
		e.logSearch(query, len(results), start, true)
		return results, nil
	}

	results, err := e.retriever.Retrieve(ctx, query, filter, opts.ContextWindow)
	if err != nil {
		if e.metrics != nil {
			e.metrics.LogError("search", err.Error())
		}
		return nil, err
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	e.storeResults(ctx, query, filter, results)
	e.logSearch(query, len(results), start, false)

	return results, nil
}

func buildFilter(opts Options) store.Filter {
	filter := store.Filter{}
	if opts.Language != "" {
		filter["language"] = opts.Language
	}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}
	if opts.Name != "" {
		filter["name"] = opts.Name
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

func (e *Engine) cachedResults(ctx context.Context, query string, filter store.Filter) ([]retriever.Result, bool) {
	if e.cache == nil || e.cacheTTL <= 0 {
		return nil, false
	}

	key := cache.QueryCacheKey(query, filter)
	raw, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var results []retriever.Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		e.logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return results, true
}

func (e *Engine) storeResults(ctx context.Context, query string, filter store.Filter, results []retriever.Result) {
	if e.cache == nil || e.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	key := cache.QueryCacheKey(query, filter)
	if err := e.cache.Set(ctx, key, string(raw), e.cacheTTL); err != nil {
		e.logger.Warn("cache write failed", "error", err)
	}
}

func (e *Engine) logSearch(query string, results int, start time.Time, cacheHit bool) {
	latency := time.Since(start)
	e.logger.Debug("search complete", "query", query, "results", results,
		"latency", latency, "cache_hit", cacheHit)
	if e.metrics != nil {
		e.metrics.LogSearch(query, results, latency.Milliseconds(), cacheHit)
	}
}
