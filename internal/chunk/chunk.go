// Package chunk turns source files into fixed-identity retrieval chunks.
package chunk

import (
	"crypto/sha256"
	"fmt"
	"strconv"
)

// Type classifies how a chunk was produced.
type Type string

const (
	TypeFunction    Type = "function"
	TypeClass       Type = "class"
	TypeModuleLevel Type = "module_level"
	TypeLineBased   Type = "line_based"
)

// Metadata describes a chunk's origin. Fields are fixed rather than an
// open key/value bag so the pipeline never does untyped map access.
type Metadata struct {
	FilePath    string `json:"file_path"`
	Language    string `json:"language"`
	Type        Type   `json:"type"`
	Name        string `json:"name,omitempty"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	CharCount   int    `json:"char_count"`
	ChunkNumber int    `json:"chunk_number,omitempty"`
}

// Value returns the stringified value of a metadata field by its wire name.
// Unknown keys return ok=false; filters treat that as a non-match.
func (m Metadata) Value(key string) (string, bool) {
	switch key {
	case "file_path":
		return m.FilePath, true
	case "language":
		return m.Language, true
	case "type":
		return string(m.Type), true
	case "name":
		return m.Name, true
	case "start_line":
		return strconv.Itoa(m.StartLine), true
	case "end_line":
		return strconv.Itoa(m.EndLine), true
	case "char_count":
		return strconv.Itoa(m.CharCount), true
	case "chunk_number":
		return strconv.Itoa(m.ChunkNumber), true
	default:
		return "", false
	}
}

// Chunk is the atomic unit of indexing and retrieval. Content is never empty
// and the chunk is never mutated after creation.
type Chunk struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
}

// New builds a chunk with a content-derived ID and computed char count.
func New(content string, meta Metadata) Chunk {
	meta.CharCount = len(content)
	return Chunk{
		ID:      GenerateID(content),
		Content: content,
		Meta:    meta,
	}
}

// GenerateID derives a stable chunk ID from content. Identical content always
// yields the same ID, which makes re-indexing idempotent.
func GenerateID(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("chunk_%x", hash[:8])
}
