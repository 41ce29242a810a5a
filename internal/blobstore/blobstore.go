package blobstore

import (
	"context"
	"io"
)

// BlobStore persists uploaded image binaries under generated names and
// resolves them back by the public URL returned from Save.
type BlobStore interface {
	Save(ctx context.Context, mimeType string, r io.Reader) (url string, err error)
	Open(ctx context.Context, url string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, url string) error
}
