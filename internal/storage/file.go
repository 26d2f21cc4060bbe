package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playdeck/internal/shared"
)

// FileStore keeps blobs in a local directory.
type FileStore struct {
	dir       string
	publicURL string
}

// NewFileStore creates the directory if needed. URLs are publicURL + "/" + key, or
// "/uploads/" + key when publicURL is empty.
func NewFileStore(dir, publicURL string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: storage dir is required", shared.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBlobStore, err)
	}

	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &FileStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p, err := s.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBlobStore, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBlobStore, err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", shared.ErrBlobStore, err)
	}
	return nil
}

// path resolves key inside the store directory, rejecting keys that escape it.
func (s *FileStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("%w: empty key", shared.ErrInvalidInput)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
