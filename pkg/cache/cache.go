// Package cache stores rendered score artifacts.
//
// Engraving is deterministic: the same score bytes, engraving profile and
// output options always produce the same SVG, PNG or PDF. Keys are derived
// from content hashes of those inputs, so a hit can be served without
// building or formatting the score again.
//
// Three backends implement [Cache]:
//
//   - [FileCache] for the CLI, one JSON file per entry under a directory
//   - [RedisCache] for shared deployments
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey names one rendered output of a score.
	ArtifactKey(scoreHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every option that changes rendered output.
type ArtifactKeyOpts struct {
	// Profile is the engraving profile fingerprint.
	Profile string  `json:"profile"`
	Format  string  `json:"format"`
	Scale   float64 `json:"scale,omitempty"`
	Width   float64 `json:"width,omitempty"`
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the score hash together with opts.
func (DefaultKeyer) ArtifactKey(scoreHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", scoreHash, opts)
}

var _ Keyer = DefaultKeyer{}
