// Package objectstore defines the object store gateway (C8): read/write
// blobs by key, plus public URL construction.
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key has no object.
var ErrNotFound = errors.New("objectstore: not found")

// Metadata is the result of a Head call.
type Metadata struct {
	ContentType   string
	ContentLength int64
}

// Gateway is the object store contract. All writes are single-object; no
// multi-part semantics are required in the core.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Head(ctx context.Context, key string) (Metadata, error)
	// PublicURL prefers a configured public domain; otherwise falls back to
	// the raw key.
	PublicURL(key string) string
}

// BuildPublicURL implements the public_url fallback rule shared by every
// Gateway implementation: prefer https://{domain}/{key}, else the raw key.
func BuildPublicURL(publicDomain, key string) string {
	if publicDomain == "" {
		return key
	}
	return fmt.Sprintf("https://%s/%s", publicDomain, key)
}
