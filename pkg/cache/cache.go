// Package cache provides artifact caching for the conversion pipeline.
//
// Conversions are deterministic given fixed inputs, so a rendered artifact
// can be reused whenever the same spec is requested in the same format with
// the same options. Keys hash the spec content together with the artifact
// options; payloads are the raw rendered bytes.
//
// Two backends are provided: a file cache for CLI usage and a redis cache
// for the HTTP service. A null cache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// TTLs for cached artifacts. Rendered artifacts only change when the
// renderer toolchain changes, so they live comparatively long.
const (
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores rendered artifacts keyed by content hash.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the options that distinguish otherwise identical
// conversions in the cache.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Mode      string  `json:"mode"`
	Scale     float64 `json:"scale"`
	VlVersion string  `json:"vl_version"`
	VgVersion string  `json:"vg_version"`
}

// Keyer computes cache keys.
type Keyer interface {
	// ArtifactKey returns the key for a rendered artifact given the spec
	// content hash and the artifact options.
	ArtifactKey(specHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (k *DefaultKeyer) ArtifactKey(specHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", specHash, opts)
}
