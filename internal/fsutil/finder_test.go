package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#"), 0o644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.hcl")
	b := filepath.Join(dir, "nested", "b.hcl")
	writeFile(t, a)
	writeFile(t, b)
	writeFile(t, filepath.Join(dir, "notes.txt"))

	files, err := CollectFiles([]string{dir, a}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestCollectFiles_Missing(t *testing.T) {
	_, err := CollectFiles([]string{filepath.Join(t.TempDir(), "nope")}, ".hcl")
	assert.ErrorContains(t, err, "does not exist")
}

func TestFindFilesByExtension_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}
