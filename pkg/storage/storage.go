package storage

import "context"

// ObjectStorage is the adapter the reconciliation services write photo and
// scan-code blobs through. Implementations return a stable URL for the
// stored object.
type ObjectStorage interface {
	Upload(ctx context.Context, name string, data []byte, mimeType string) (string, error)
	Download(ctx context.Context, name string) ([]byte, error)
}
