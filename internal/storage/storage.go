// Package storage defines the blob store abstraction used to archive raw
// bill renditions. Implementations back it with Google Cloud Storage, the
// local filesystem, or memory for tests and dry runs.
package storage

import (
	"context"
	"io"
)

// BlobStore persists a raw rendition payload and returns the URI where it
// can be retrieved later.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// NoOpStore discards everything. It backs dry runs where bill text is
// fetched and normalized but never archived.
type NoOpStore struct{}

// PutObject drains the reader and returns an empty URI.
func (NoOpStore) PutObject(_ context.Context, _ string, _ string, data io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, data)
	return "", nil
}
