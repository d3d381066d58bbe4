package vs

import (
	"context"
	"io"
	"time"
)

// BlobStore is the storage backend for file contents, addressed by key.
// Implementations carry no business logic. All operations stream through
// io.Reader/io.Writer so large files are never held in memory.
type BlobStore interface {
	// Put stores the bytes read from r under key, replacing any previous
	// content. size is the number of bytes expected from r, or -1 if unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the content stored under key to w, sequentially from the
	// first byte. Returns an error wrapping ErrBlobNotFound for a missing key.
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)

	// ValidateSetup verifies that the store is reachable and usable.
	ValidateSetup() error
}

// BlobInfo describes a stored key.
type BlobInfo struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// BlobLister is implemented by stores that can enumerate their keys.
// Reconciliation uses it to find blobs with no metadata row.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
