package indexer

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIncludes covers the file extensions the segmenter understands.
var defaultIncludes = []string{
	"**/*.py",
	"**/*.js",
	"**/*.jsx",
	"**/*.ts",
	"**/*.tsx",
	"**/*.go",
	"**/*.java",
	"**/*.c",
	"**/*.h",
	"**/*.cpp",
	"**/*.cc",
	"**/*.hpp",
	"**/*.rs",
}

// defaultExcludes skips dependency trees, build output, and editor state.
var defaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/venv/**",
	"**/.venv/**",
	"**/vendor/**",
	"**/target/**",
	"**/dist/**",
	"**/build/**",
	"**/.idea/**",
	"**/.vscode/**",
	"**/*.min.js",
	"**/*.bundle.js",
}

// Walker traverses a directory tree applying doublestar include and exclude
// patterns against slash-separated paths relative to the walk root.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker builds a walker. Empty includes fall back to the supported source
// extensions; user excludes are applied on top of the built-in ones.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	return &Walker{
		includes: includes,
		excludes: append(append([]string{}, defaultExcludes...), excludes...),
	}
}

// Walk calls fn for every file under root that matches the include patterns
// and none of the exclude patterns. Excluded directories are pruned without
// descending into them.
func (w *Walker) Walk(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.excluded(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.excluded(relPath) || !matchAny(w.includes, relPath) {
			return nil
		}
		return fn(path)
	})
}

// excluded reports whether relPath matches an exclude pattern. Directory
// patterns like "**/.git/**" are also tested against the bare directory path
// so the whole subtree can be pruned.
func (w *Walker) excluded(relPath string) bool {
	if matchAny(w.excludes, relPath) {
		return true
	}
	return matchAny(w.excludes, relPath+"/")
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
