package interfaces

import (
	"context"
)

// ObjectStore is binary artifact storage for rendered PDFs and cached raw
// data snapshots. Put is write-if-absent: re-uploading an existing key is a
// no-op, which keeps repeated workflow runs idempotent.
type ObjectStore interface {
	// Put stores data under key. Returns true if the object was written,
	// false if it already existed.
	Put(ctx context.Context, key string, data []byte) (bool, error)

	// Get retrieves the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
