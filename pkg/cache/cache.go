// Package cache provides the key/value caches used by the orgchart
// pipeline and server.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: a shared cache for `orgchart serve` instances
//   - [NullCache]: disables caching
//
// # Keys
//
// A [Keyer] derives keys from content hashes, so identical inputs map to
// the same entry regardless of where they came from:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(graphHash, cache.LayoutKeyOpts{Width: 150, Height: 100})
//
// [ScopedKeyer] prefixes every key. The pipeline scopes its keys with a
// schema version so entries from older builds are ignored.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a cache after Close.
var ErrClosed = errors.New("cache closed")

// Default time-to-live per entry kind.
const (
	TTLHierarchy = 24 * time.Hour
	TTLLayout    = 7 * 24 * time.Hour
	TTLArtifact  = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// itself failed. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the layout parameters that change positions.
type LayoutKeyOpts struct {
	Width         float64 `json:"w"`
	Height        float64 `json:"h"`
	HorizontalGap float64 `json:"hg"`
	VerticalGap   float64 `json:"vg"`
}

// ArtifactKeyOpts identify one rendered output of a layout.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Legend   bool   `json:"legend,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Keyer builds cache keys for each kind of cached value.
type Keyer interface {
	// HTTPKey keys a raw backend response, e.g. namespace "hierarchy:".
	HTTPKey(namespace, key string) string

	// HierarchyKey keys a fetched hierarchy by backend and search query.
	HierarchyKey(backend, query string) string

	// LayoutKey keys a layout by the hash of its flattened graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered output by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer. Its keys are stable across releases
// as long as the option structs keep their JSON shape.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) HierarchyKey(backend, query string) string {
	return hashKey("hierarchy", backend, query)
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
