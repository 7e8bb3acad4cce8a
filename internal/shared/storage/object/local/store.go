package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sourcing-backend/internal/shared/storage/object"
)

// Store keeps objects on the local filesystem for dev and the CLI.
type Store struct {
	baseDir string
}

// New creates a store rooted at baseDir. The directory is created lazily.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes r to key, replacing any existing object. Content type is not
// persisted; readers infer it from the key's extension.
func (s *Store) Put(ctx context.Context, key string, _ string, r io.Reader) (int64, error) {
	fullPath, err := s.path(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	// write to a temp file so a failed upload never leaves a partial object
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return 0, fmt.Errorf("write body: %w", copyErr)
		}
		return 0, fmt.Errorf("close temp: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(ctx, key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (s *Store) path(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

var _ object.ObjectStore = (*Store)(nil)
