// Package blob stores uploaded product images by opaque key. Keys are inert
// until a database row references them, which is what makes the
// blobs-first/rows-second write ordering safe.
package blob

import (
	"context"
	"io"
)

type Store interface {
	// Put stores the payload and returns the generated key. suggestedName is
	// only used for its extension.
	Put(ctx context.Context, suggestedName, contentType string, r io.Reader, size int64) (string, error)
	// Delete is idempotent; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a retrievable (possibly time-limited) URL for the key.
	URL(ctx context.Context, key string) (string, error)
}
