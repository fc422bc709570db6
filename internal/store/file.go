package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores each key as a JSON document on disk. This is the
// default backend for single-user deployments without a database.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the backend rooted at the given directory,
// creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Load reads the document for the key, or (nil, nil) when absent.
func (b *FileBackend) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save overwrites the document for the key.
func (b *FileBackend) Save(key string, document []byte) error {
	return os.WriteFile(b.path(key), document, 0o644)
}

// Delete removes the key's file; a missing file is not an error.
func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
