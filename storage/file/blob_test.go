package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "vectors.json"))

	data, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveAndLoad(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nested", "dir", "vectors.json"))

	require.NoError(t, store.Save([]byte(`{"version":1}`)))

	data, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))
}

func TestSave_Overwrites(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "vectors.json"))

	require.NoError(t, store.Save([]byte("first")))
	require.NoError(t, store.Save([]byte("second")))

	data, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "vectors.json"))
	require.NoError(t, store.Save([]byte("payload")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vectors.json", entries[0].Name())
}
