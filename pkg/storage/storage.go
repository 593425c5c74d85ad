package storage

import (
	"context"
	"io"
)

// Storage persists uploaded documents until processing completes.
type Storage interface {
	// Store writes the object under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string, size int64, contentType string) (string, error)
	// Get opens the object stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
