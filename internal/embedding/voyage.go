package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const voyageAPIURL = "https://api.voyageai.com/v1/embeddings"

// VoyageClient generates embeddings via the Voyage AI API.
type VoyageClient struct {
	apiKey string
	model  string
	client *http.Client
	retry  RetryConfig
}

// NewVoyageClient creates a new Voyage embedding client.
func NewVoyageClient(apiKey, model string) *VoyageClient {
	return &VoyageClient{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: DefaultRetryConfig(),
	}
}

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageResponse struct {
	Data  []voyageEmbedding `json:"data"`
	Usage voyageUsage       `json:"usage"`
}

type voyageEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type voyageUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// Embed generates an embedding for a single text.
func (c *VoyageClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || vectors[0] == nil {
		return nil, fmt.Errorf("%w: no vector returned", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for the given texts in one API call,
// retrying transient failures with exponential backoff.
func (c *VoyageClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return retryWithBackoff(ctx, c.retry, func() ([][]float32, error) {
		return c.embedOnce(ctx, texts)
	})
}

func (c *VoyageClient) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := voyageRequest{
		Input:     texts,
		Model:     c.model,
		InputType: "document",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", voyageAPIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API error (status %d): %s", ErrEmbeddingFailed, resp.StatusCode, string(body))
	}

	var voyageResp voyageResponse
	if err := json.Unmarshal(body, &voyageResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Sort by index so output order matches input order
	vectors := make([][]float32, len(texts))
	for _, emb := range voyageResp.Data {
		if emb.Index >= 0 && emb.Index < len(vectors) {
			vectors[emb.Index] = emb.Embedding
		}
	}

	return vectors, nil
}

// Dimension returns the vector dimension for the configured model.
func (c *VoyageClient) Dimension() int {
	switch c.model {
	case "voyage-3-lite":
		return 512
	default:
		// voyage-code-3, voyage-3, voyage-3-large
		return 1024
	}
}

// Model returns the configured model name.
func (c *VoyageClient) Model() string {
	return c.model
}
