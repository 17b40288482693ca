package chunk

import (
	"log/slog"
	"strings"

	"github.com/randalmurphy/code-search/internal/parser"
)

// Config tunes chunking behavior.
type Config struct {
	// ChunkSize is the target chunk size in characters for line-based chunking.
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is the target overlap in characters between line-based chunks.
	ChunkOverlap int `yaml:"chunk_overlap"`
	// ContextBefore / ContextAfter pad structural chunks with surrounding lines.
	ContextBefore int `yaml:"context_before"`
	ContextAfter  int `yaml:"context_after"`
	// UseAST enables structure-aware chunking where the language is supported.
	UseAST bool `yaml:"use_ast"`
}

// DefaultConfig returns the chunking defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:     1000,
		ChunkOverlap:  200,
		ContextBefore: 2,
		ContextAfter:  3,
		UseAST:        true,
	}
}

// Chunker splits source files into chunks, preferring syntax-tree boundaries
// and falling back to sliding line windows.
type Chunker struct {
	cfg       Config
	segmenter *parser.Segmenter
	logger    *slog.Logger
}

// NewChunker creates a chunker. A nil logger falls back to slog.Default().
func NewChunker(cfg Config, logger *slog.Logger) *Chunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{
		cfg:       cfg,
		segmenter: parser.NewSegmenter(),
		logger:    logger,
	}
}

// Chunk splits source into chunks. Chunking the same source, language, and
// path twice produces byte-identical output. Empty or whitespace-only source
// yields no chunks; parse failures degrade to line-based chunking rather
// than surfacing an error.
func (c *Chunker) Chunk(source, language, filePath string) []Chunk {
	if strings.TrimSpace(source) == "" {
		return nil
	}

	if c.cfg.UseAST && c.segmenter.Supported(language) {
		units, err := c.segmenter.Segment([]byte(source), language)
		if err != nil {
			c.logger.Debug("segmentation failed, falling back to line chunking",
				"path", filePath, "error", err)
		} else if len(units) > 0 {
			return c.chunkUnits(source, units, language, filePath)
		}
	}

	return c.chunkLines(source, language, filePath)
}

// chunkUnits builds one chunk per segmented unit, padded with context lines,
// plus module_level chunks for lines no unit covers. Overlapping units
// (nested definitions) each get their own chunk; the overlap is accepted.
func (c *Chunker) chunkUnits(source string, units []parser.Unit, language, filePath string) []Chunk {
	lines := strings.Split(source, "\n")
	var chunks []Chunk

	for _, u := range units {
		ctxStart := u.StartLine - c.cfg.ContextBefore
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := u.EndLine + 1 + c.cfg.ContextAfter
		if ctxEnd > len(lines) {
			ctxEnd = len(lines)
		}

		before := strings.Join(lines[ctxStart:u.StartLine], "\n")
		after := ""
		if u.EndLine+1 < ctxEnd {
			after = strings.Join(lines[u.EndLine+1:ctxEnd], "\n")
		}

		content := strings.TrimSpace(before + "\n" + u.Text + "\n" + after)
		if content == "" {
			continue
		}

		typ := TypeFunction
		if u.Kind == parser.UnitType {
			typ = TypeClass
		}

		chunks = append(chunks, New(content, Metadata{
			FilePath:  filePath,
			Language:  language,
			Type:      typ,
			Name:      u.Name,
			StartLine: u.StartLine,
			EndLine:   u.EndLine,
		}))
	}

	chunks = append(chunks, c.chunkGaps(lines, units, language, filePath)...)

	return chunks
}

// chunkGaps emits module_level chunks for contiguous runs of lines not
// covered by any unit (imports, constants, top-of-file assignments).
func (c *Chunker) chunkGaps(lines []string, units []parser.Unit, language, filePath string) []Chunk {
	covered := make([]bool, len(lines))
	for _, u := range units {
		for i := u.StartLine; i <= u.EndLine && i < len(lines); i++ {
			covered[i] = true
		}
	}

	var chunks []Chunk
	var run []string
	runStart := 0

	flush := func() {
		if len(run) == 0 {
			return
		}
		if chunk, ok := newLineChunk(run, runStart, language, filePath, TypeModuleLevel, 0); ok {
			chunks = append(chunks, chunk)
		}
		run = nil
	}

	for i, line := range lines {
		if covered[i] {
			flush()
			continue
		}
		if len(run) == 0 {
			runStart = i
		}
		run = append(run, line)
	}
	flush()

	return chunks
}

// chunkLines slides a window of whole lines across the file. The window size
// derives from the average line length so the configured character budget
// holds roughly regardless of line width.
func (c *Chunker) chunkLines(source, language, filePath string) []Chunk {
	lines := strings.Split(source, "\n")

	// The average stays fractional; only the final quotients floor.
	avgLineLen := float64(len(source)) / float64(len(lines))
	if avgLineLen < 1 {
		avgLineLen = 1
	}
	linesPerWindow := int(float64(c.cfg.ChunkSize) / avgLineLen)
	if linesPerWindow < 1 {
		linesPerWindow = 1
	}
	overlap := int(float64(c.cfg.ChunkOverlap) / avgLineLen)
	if overlap < 0 {
		overlap = 0
	}
	step := linesPerWindow - overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	num := 0

	for i := 0; i < len(lines); i += step {
		end := i + linesPerWindow
		if end > len(lines) {
			end = len(lines)
		}
		if chunk, ok := newLineChunk(lines[i:end], i, language, filePath, TypeLineBased, num); ok {
			chunks = append(chunks, chunk)
		}
		num++
	}

	return chunks
}

// newLineChunk builds a chunk from raw lines; windows that trim to nothing
// are dropped.
func newLineChunk(lines []string, startLine int, language, filePath string, typ Type, num int) (Chunk, bool) {
	content := strings.TrimSpace(strings.Join(lines, "\n"))
	if content == "" {
		return Chunk{}, false
	}

	return New(content, Metadata{
		FilePath:    filePath,
		Language:    language,
		Type:        typ,
		StartLine:   startLine,
		EndLine:     startLine + len(lines) - 1,
		ChunkNumber: num,
	}), true
}
