package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestNew_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(file)
	assert.Error(t, err)

	_, err = New(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Notes/a.md", "note a")
	writeFile(t, dir, "Notes/b.txt", "note b")
	writeFile(t, dir, ".obsidian/config", "ignored")

	t.Run("all files", func(t *testing.T) {
		src, err := New(dir)
		require.NoError(t, err)

		docs, err := src.List(context.Background())
		require.NoError(t, err)

		var paths []string
		for _, d := range docs {
			paths = append(paths, d.Path)
		}
		assert.ElementsMatch(t, []string{"Notes/a.md", "Notes/b.txt"}, paths)
	})

	t.Run("markdown only", func(t *testing.T) {
		src, err := New(dir, WithMarkdownOnly(true))
		require.NoError(t, err)

		docs, err := src.List(context.Background())
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Notes/a.md", docs[0].Path)
		assert.Equal(t, ".md", docs[0].Extension)
	})
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Notes/a.md", "hello vault")

	src, err := New(dir)
	require.NoError(t, err)

	content, err := src.Read(context.Background(), "Notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello vault", content)

	_, err = src.Read(context.Background(), "Notes/missing.md")
	assert.Error(t, err)
}

func TestTags_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Notes/tagged.md", "---\ntags: [work]\n---\nBody #extra")

	src, err := New(dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"work", "extra"}, src.Tags("Notes/tagged.md"))
	assert.Empty(t, src.Tags("Notes/missing.md"))
}
