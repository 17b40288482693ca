package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collectFiles(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	var files []string
	err := w.Walk(root, func(path string) error {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestWalkerIncludes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.py"), "pass\n")
	writeFile(t, filepath.Join(tmpDir, "sub", "b.go"), "package sub\n")
	writeFile(t, filepath.Join(tmpDir, "c.txt"), "notes\n")

	files := collectFiles(t, NewWalker(nil, nil), tmpDir)
	assert.ElementsMatch(t, []string{"a.py", "sub/b.go"}, files)
}

func TestWalkerDefaultExcludes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "keep.py"), "pass\n")

	for _, dir := range []string{".git", "node_modules", "__pycache__", "venv", "vendor", "target", "dist", "build"} {
		writeFile(t, filepath.Join(tmpDir, dir, "skip.py"), "pass\n")
	}

	files := collectFiles(t, NewWalker(nil, nil), tmpDir)
	assert.Equal(t, []string{"keep.py"}, files)
}

func TestWalkerCustomPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.py"), "pass\n")
	writeFile(t, filepath.Join(tmpDir, "b.go"), "package b\n")
	writeFile(t, filepath.Join(tmpDir, "gen", "c.py"), "pass\n")

	w := NewWalker([]string{"**/*.py"}, []string{"gen/**"})
	files := collectFiles(t, w, tmpDir)
	assert.Equal(t, []string{"a.py"}, files)
}

func TestWalkerMinifiedExcluded(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "app.js"), "function a() {}\n")
	writeFile(t, filepath.Join(tmpDir, "app.min.js"), "function a(){}\n")

	files := collectFiles(t, NewWalker(nil, nil), tmpDir)
	assert.Equal(t, []string{"app.js"}, files)
}
