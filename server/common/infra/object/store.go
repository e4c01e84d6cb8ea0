package object

import (
	"context"
	"io"
	"strings"
)

// Store is the bucket-scoped object storage the services write to.
// Implementations are safe for concurrent use.
type Store interface {
	// Put stores size bytes from body under key and returns the key as stored.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key, or "" when no public base is set.
	URL(key string) string
}

func publicURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/" + strings.TrimPrefix(key, "/")
}
