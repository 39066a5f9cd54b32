// Package cache stores rendered artifacts keyed by content hash.
//
// Flow diagrams are the expensive output of flowscript: rendering goes through
// Graphviz while script generation is a string build. The pipeline keys each
// diagram by the hash of the flow's document plus the render options, so an
// unchanged flow renders once.
//
// Backends:
//   - [FileCache]: one file per entry under a directory, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// [RetryWithBackoff] and [Retryable] are shared with the redis-backed stores in
// pkg/session and pkg/library.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is how long rendered diagrams are kept.
const DefaultTTL = 7 * 24 * time.Hour

// DiagramKeyOpts are the render options that change a diagram's bytes.
type DiagramKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction,omitempty"`
}

// DiagramKey returns the cache key for a rendered flow diagram.
// docHash is the [Hash] of the flow's serialized document.
func DiagramKey(docHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", docHash, opts)
}
