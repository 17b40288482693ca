// Package config loads tool configuration from YAML with defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphy/code-search/internal/chunk"
	"github.com/randalmurphy/code-search/internal/embedding"
	"github.com/randalmurphy/code-search/internal/indexer"
	"github.com/randalmurphy/code-search/internal/retriever"
)

// Config holds global configuration.
type Config struct {
	Embedding embedding.Config `yaml:"embedding"`
	Chunking  chunk.Config     `yaml:"chunking"`
	Indexing  indexer.Config   `yaml:"indexing"`
	Retrieval retriever.Config `yaml:"retrieval"`
	Storage   StorageConfig    `yaml:"storage"`
	Cache     CacheConfig      `yaml:"cache"`
	Logging   LoggingConfig    `yaml:"logging"`
	// Include and Exclude are doublestar patterns applied when walking a
	// repository. Empty Include falls back to the supported languages.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type StorageConfig struct {
	// Backend selects the vector store: "flat" or "qdrant".
	Backend string `yaml:"backend"`
	// IndexPath is where the flat backend persists its index.
	IndexPath  string `yaml:"index_path"`
	QdrantURL  string `yaml:"qdrant_url"`
	Collection string `yaml:"collection"`
	RedisURL   string `yaml:"redis_url"`
}

type CacheConfig struct {
	// QueryTTLMinutes is how long search results stay cached. Zero disables
	// the query cache.
	QueryTTLMinutes int `yaml:"query_ttl_minutes"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // error|warn|info|debug
	MetricsPath string `yaml:"metrics_path"`
}

// DefaultConfig returns sensible defaults for a local flat-index setup.
func DefaultConfig() *Config {
	return &Config{
		Embedding: embedding.DefaultConfig(),
		Chunking:  chunk.DefaultConfig(),
		Indexing:  indexer.DefaultConfig(),
		Retrieval: retriever.DefaultConfig(),
		Storage: StorageConfig{
			Backend:    "flat",
			IndexPath:  ".code-search/index",
			QdrantURL:  "http://localhost:6334",
			Collection: "code_chunks",
		},
		Cache: CacheConfig{
			QueryTTLMinutes: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads config from file, overlaying it on defaults. A missing
// file is not an error; defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
