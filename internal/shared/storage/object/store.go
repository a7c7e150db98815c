package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves binary objects: storefront snapshots and
// their extracted-text companions.
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
