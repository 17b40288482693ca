// Package metrics provides JSONL event logging for search and indexing runs.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Logger appends one JSON object per event to a file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// NewLogger opens the event log for appending, creating it if needed.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

func (l *Logger) log(event string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range data {
		e[k] = v
	}

	line, _ := json.Marshal(e)
	l.file.Write(line)
	l.file.Write([]byte("\n"))
}

// LogSearch records a search query, its result count, and latency.
func (l *Logger) LogSearch(query string, results int, latencyMs int64, cacheHit bool) {
	l.log("search", map[string]any{
		"query":      query,
		"results":    results,
		"latency_ms": latencyMs,
		"cache_hit":  cacheHit,
	})
}

// LogIndex records an indexing run over a repository.
func (l *Logger) LogIndex(root string, files, chunksCreated, chunksIndexed int, latencyMs int64) {
	l.log("index", map[string]any{
		"root":           root,
		"files":          files,
		"chunks_created": chunksCreated,
		"chunks_indexed": chunksIndexed,
		"latency_ms":     latencyMs,
	})
}

// LogError records a failed operation.
func (l *Logger) LogError(operation, message string) {
	l.log("error", map[string]any{
		"operation": operation,
		"message":   message,
	})
}
