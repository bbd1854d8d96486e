package storage

import (
	"context"
	"io"
	"time"
)

// FileStorage is the photo-proof store. The attendance core only keeps the
// returned reference string; image bytes are opaque to it.
type FileStorage interface {
	// Upload stores a file and returns its path/key reference
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// GetURL generates a presigned/public URL
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
