package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when the managed document does not exist.
var ErrNotFound = errors.New("document not found")

// FileStore is a document on the local filesystem.
type FileStore struct {
	path string
}

// NewFile creates a store for a local document.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

// Read returns the document content.
func (s *FileStore) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	return string(data), nil
}

// Write replaces the document atomically: the new content goes to a
// temporary file in the same directory, is synced, then renamed over the
// original. A crash mid-write leaves either the old or the new document,
// never a torn one. The original file mode is preserved.
func (s *FileStore) Write(ctx context.Context, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpName, s.path, err)
	}
	return nil
}

// Location returns the document path.
func (s *FileStore) Location() string {
	return s.path
}
