// Package embedding provides clients for generating vector representations
// of code and queries.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrEmbeddingFailed is returned when a provider produces no vector.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Embedder generates fixed-dimension embeddings. EmbedBatch may return nil
// entries for individual texts the provider could not embed; a non-nil error
// means the whole batch failed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Config selects an embedding provider and model.
type Config struct {
	Provider string `yaml:"provider"` // "voyage" or "openai"
	Model    string `yaml:"model"`
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		Provider: "voyage",
		Model:    "voyage-code-3",
	}
}

// New creates an embedder for the configured provider. API keys come from
// the environment (VOYAGE_API_KEY, OPENAI_API_KEY), never from config files.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "voyage":
		key := os.Getenv("VOYAGE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("VOYAGE_API_KEY environment variable not set")
		}
		return NewVoyageClient(key, cfg.Model), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return NewOpenAIClient(key, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: voyage, openai)", cfg.Provider)
	}
}
