package storage

import (
	"alcyxob/anyshare/internal/domain"
	"context"
	"io"
	"time"
)

// Default expiry for signed download URLs. Much shorter than a record's own lifetime
// so a resolved link cannot be replayed for long.
const DefaultSignedURLExpiry = 60 * time.Second

// ObjectStore defines the byte storage the relay writes to and brokers access for.
type ObjectStore interface {
	// Upload writes size bytes from r under objectKey.
	Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error

	// Delete removes an object. A missing object yields domain.AlreadyAbsent.
	Delete(ctx context.Context, objectKey string) (domain.DeleteResult, error)

	// SignedDownloadURL creates a temporary URL that allows GET of one object.
	SignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// Ping reports whether the bucket is reachable.
	Ping(ctx context.Context) error
}
