package embedding

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoyageEmbedBatch(t *testing.T) {
	apiKey := os.Getenv("VOYAGE_API_KEY")
	if apiKey == "" {
		t.Skip("VOYAGE_API_KEY not set, skipping integration test")
	}

	ctx := context.Background()
	client := NewVoyageClient(apiKey, "voyage-code-3")

	texts := []string{
		"def hello(): return 'world'",
		"function greet() { return 'hi'; }",
	}

	vectors, err := client.EmbedBatch(ctx, texts)
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], client.Dimension())
	assert.Len(t, vectors[1], client.Dimension())
}

func TestVoyageEmbedBatchEmpty(t *testing.T) {
	client := NewVoyageClient("dummy-key", "voyage-code-3")

	vectors, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestVoyageDimension(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"voyage-code-3", 1024},
		{"voyage-3", 1024},
		{"voyage-3-lite", 512},
		{"unknown-model", 1024},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client := NewVoyageClient("dummy", tt.model)
			assert.Equal(t, tt.expected, client.Dimension())
		})
	}
}
