// Package retriever implements multi-stage retrieval over the vector store:
// candidate generation, heuristic re-ranking, and context annotation.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/randalmurphy/code-search/internal/chunk"
	"github.com/randalmurphy/code-search/internal/embedding"
	"github.com/randalmurphy/code-search/internal/store"
)

// Boosts are the re-ranking weights. They are tuning values, not physics;
// the defaults come from observed retrieval quality and can be overridden
// in configuration.
type Boosts struct {
	// TermMatch is added once per query term found in the chunk content.
	TermMatch float64 `yaml:"term_match"`
	// Per-chunk-type boosts: functions rank above classes above module code.
	Function    float64 `yaml:"function"`
	Class       float64 `yaml:"class"`
	ModuleLevel float64 `yaml:"module_level"`
	// NameMatch is added when the chunk's symbol name contains a query term.
	NameMatch float64 `yaml:"name_match"`
}

// DefaultBoosts returns the default re-ranking weights.
func DefaultBoosts() Boosts {
	return Boosts{
		TermMatch:   0.1,
		Function:    0.3,
		Class:       0.2,
		ModuleLevel: 0.1,
		NameMatch:   0.2,
	}
}

// Config tunes the retriever.
type Config struct {
	// TopK candidates come out of vector search; TopN survive re-ranking.
	TopK   int    `yaml:"top_k"`
	TopN   int    `yaml:"top_n"`
	Boosts Boosts `yaml:"boosts"`
}

// DefaultConfig returns retrieval defaults: 5 final results drawn from a 4x
// wider candidate pool.
func DefaultConfig() Config {
	return Config{
		TopK:   20,
		TopN:   5,
		Boosts: DefaultBoosts(),
	}
}

// Context describes the surrounding-lines window attached to a result.
type Context struct {
	BeforeLines int    `json:"before_lines"`
	AfterLines  int    `json:"after_lines"`
	FilePath    string `json:"file_path"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
}

// Result is a retrieved chunk with its ranking signals.
type Result struct {
	Chunk       chunk.Chunk `json:"chunk"`
	Distance    float64     `json:"distance"`
	Score       float64     `json:"score"`
	Explanation string      `json:"explanation"`
	Context     Context     `json:"context"`
}

// Retriever answers natural-language queries against a vector store. It
// holds references to a long-lived store and embedder constructed by the
// caller; it owns neither.
type Retriever struct {
	store    store.VectorStore
	embedder embedding.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a retriever. Zero config fields fall back to defaults; a nil
// logger falls back to slog.Default().
func New(vs store.VectorStore, embedder embedding.Embedder, cfg Config, logger *slog.Logger) *Retriever {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	if cfg.TopK <= 0 {
		cfg.TopK = cfg.TopN * 4
	}
	if cfg.Boosts == (Boosts{}) {
		cfg.Boosts = DefaultBoosts()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:    vs,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve runs the three retrieval stages in order and returns at most TopN
// results, most relevant first. A failed query embedding yields an empty
// result set rather than an error; "nothing relevant found" is a normal
// outcome and only store failures surface as errors.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter store.Filter, contextWindow int) ([]Result, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		r.logger.Warn("query embedding failed, returning no results", "error", err)
		return nil, nil
	}

	candidates, err := r.store.Search(ctx, vector, r.cfg.TopK, filter)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	results := r.rerank(query, candidates)

	if len(results) > r.cfg.TopN {
		results = results[:r.cfg.TopN]
	}
	for i := range results {
		results[i].Context = resultContext(results[i].Chunk.Meta, contextWindow)
		results[i].Explanation = explainRelevance(results[i].Chunk.Meta)
	}

	return results, nil
}

// rerank scores every candidate and sorts descending. The sort is stable so
// candidates with equal scores keep their distance ordering.
func (r *Retriever) rerank(query string, candidates []store.Candidate) []Result {
	terms := queryTerms(query)

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{
			Chunk:    c.Chunk,
			Distance: c.Distance,
			Score:    r.score(terms, c),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// score combines vector distance with term, type, and name boosts. The base
// score 1/(1+d) maps any distance into (0,1], decreasing in distance, so
// every boost strictly improves rank.
func (r *Retriever) score(terms []string, c store.Candidate) float64 {
	score := 1.0 / (1.0 + c.Distance)

	content := strings.ToLower(c.Chunk.Content)
	for _, term := range terms {
		if strings.Contains(content, term) {
			score += r.cfg.Boosts.TermMatch
		}
	}

	switch c.Chunk.Meta.Type {
	case chunk.TypeFunction:
		score += r.cfg.Boosts.Function
	case chunk.TypeClass:
		score += r.cfg.Boosts.Class
	case chunk.TypeModuleLevel:
		score += r.cfg.Boosts.ModuleLevel
	}

	if name := strings.ToLower(c.Chunk.Meta.Name); name != "" {
		for _, term := range terms {
			if strings.Contains(name, term) {
				score += r.cfg.Boosts.NameMatch
				break
			}
		}
	}

	return score
}

// queryTerms lowercases and splits the query, deduplicating terms so a
// repeated word boosts once.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

func resultContext(meta chunk.Metadata, window int) Context {
	return Context{
		BeforeLines: window,
		AfterLines:  window,
		FilePath:    meta.FilePath,
		StartLine:   meta.StartLine,
		EndLine:     meta.EndLine,
	}
}

// explainRelevance builds a one-line human explanation, omitting absent
// parts: `Function 'add' in python from calc.py`.
func explainRelevance(meta chunk.Metadata) string {
	var parts []string

	typ := string(meta.Type)
	if typ == "" {
		typ = "code"
	}
	if meta.Name != "" {
		parts = append(parts, fmt.Sprintf("%s '%s'", capitalize(typ), meta.Name))
	} else {
		parts = append(parts, capitalize(typ)+" block")
	}

	if meta.Language != "" {
		parts = append(parts, "in "+meta.Language)
	}
	if meta.FilePath != "" {
		parts = append(parts, "from "+filepath.Base(meta.FilePath))
	}

	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
