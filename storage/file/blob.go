// Package file provides a BlobStore backed by a single file on disk.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/vaultrag/storage"
)

// BlobStore persists a payload in one file. Saves go through a temp file
// and a rename so a crash mid-write never leaves a torn payload behind.
type BlobStore struct {
	path string
}

var _ storage.BlobStore = (*BlobStore)(nil)

// New creates a BlobStore writing to the given path. Parent directories
// are created on first save.
func New(path string) *BlobStore {
	return &BlobStore{path: path}
}

// Path returns the file the store writes to.
func (s *BlobStore) Path() string {
	return s.path
}

// Load returns the file contents, or nil when the file does not exist yet.
func (s *BlobStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}
	return data, nil
}

// Save atomically replaces the file contents.
func (s *BlobStore) Save(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
