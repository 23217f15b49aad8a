// Package cache stores computed result buffers and rendered artifacts.
//
// Computing a large grid is the expensive step of every render, and both
// strategies produce identical buffers for the same grid and kernel, so a
// buffer is cached under a key derived from those two values alone. Encoded
// images are cached under the hash of the buffer they were drawn from plus
// their encoding options.
//
// Backends:
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/newton/pkg/newton"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (hit=false), not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	TTLResult   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// ArtifactKeyOpts are the encoding options that distinguish artifacts drawn
// from the same buffer.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Size   int    `json:"size,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ResultKey identifies the buffer computed for grid and kernel.
	ResultKey(grid newton.Grid, kernel newton.Kernel) string

	// ArtifactKey identifies an image encoded from the buffer whose content
	// hash is resultHash.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the key components as JSON.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ResultKey(grid newton.Grid, kernel newton.Kernel) string {
	return hashKey("result", grid, kernel)
}

func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}
