// Package storage persists uploaded images (playlist covers, track artwork) and hands back
// the URL they can be displayed from.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playdeck/internal/shared"
)

// BlobStore stores opaque blobs under a key.
type BlobStore interface {
	// Put writes data under key and returns the public URL of the stored object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Backend ("file" or "minio").
func New(ctx context.Context, cfg shared.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Dir, cfg.PublicURL)
	case "minio":
		return NewMinioStore(ctx, cfg.Minio, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// ObjectKey derives a collision-free key for an upload: <prefix>/<owner>-<uuid><ext>.
func ObjectKey(prefix, owner, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(prefix, owner+"-"+shared.GenerateID()+ext)
}

// ContentType guesses the MIME type from the filename, then from the bytes.
func ContentType(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// IsImage reports whether contentType is an image type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
