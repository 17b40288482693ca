package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "metrics.jsonl")

	logger, err := NewLogger(logPath)
	require.NoError(t, err)
	defer logger.Close()

	logger.LogSearch("auth timeout", 5, 120, false)
	logger.LogIndex("/repos/app", 10, 45, 43, 900)
	logger.LogError("search", "connection timeout")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	// Every line is standalone JSON with a timestamp and event tag.
	for _, line := range lines {
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		assert.NotEmpty(t, event["ts"])
		assert.NotEmpty(t, event["event"])
	}

	content := string(data)
	assert.Contains(t, content, `"event":"search"`)
	assert.Contains(t, content, `"query":"auth timeout"`)
	assert.Contains(t, content, `"cache_hit":false`)

	assert.Contains(t, content, `"event":"index"`)
	assert.Contains(t, content, `"chunks_created":45`)
	assert.Contains(t, content, `"chunks_indexed":43`)

	assert.Contains(t, content, `"event":"error"`)
	assert.Contains(t, content, `"operation":"search"`)
}

func TestMetricsLoggerAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "metrics.jsonl")

	logger, err := NewLogger(logPath)
	require.NoError(t, err)
	logger.LogSearch("first", 1, 10, false)
	require.NoError(t, logger.Close())

	logger, err = NewLogger(logPath)
	require.NoError(t, err)
	logger.LogSearch("second", 2, 20, true)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}
