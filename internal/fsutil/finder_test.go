package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# test"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, "b.hcl", "a.hcl", "notes.txt", "nested/c.hcl")

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.hcl"),
	}, files)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, "dir/one.hcl", "dir/two.hcl", "single.hcl", "skip.txt")

	files, err := CollectFiles([]string{
		filepath.Join(root, "single.hcl"),
		filepath.Join(root, "dir"),
		filepath.Join(root, "dir", "one.hcl"),
		filepath.Join(root, "skip.txt"),
	}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "single.hcl"),
		filepath.Join(root, "dir", "one.hcl"),
		filepath.Join(root, "dir", "two.hcl"),
	}, files)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	t.Parallel()
	_, err := CollectFiles([]string{filepath.Join(t.TempDir(), "nope.hcl")}, ".hcl")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
