package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderSelection(t *testing.T) {
	t.Setenv("VOYAGE_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-key")

	emb, err := New(Config{Provider: "voyage", Model: "voyage-code-3"})
	require.NoError(t, err)
	assert.IsType(t, &VoyageClient{}, emb)
	assert.Equal(t, 1024, emb.Dimension())

	emb, err = New(Config{Provider: "openai", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, emb)

	_, err = New(Config{Provider: "cohere"})
	require.Error(t, err)
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("VOYAGE_API_KEY", "")

	_, err := New(Config{Provider: "voyage", Model: "voyage-code-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOYAGE_API_KEY")
}
