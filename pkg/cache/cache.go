// Package cache stores derived artifacts (tree maps, layouts, rendered
// output) keyed by content hash and options.
//
// Documents themselves are never stored; a cache only saves recomputing what
// can be derived from them again. Every backend is therefore allowed to lose
// entries at any time.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry, for the CLI
//   - [MemoryCache]: bounded in-process LRU, for the server
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [MongoCache]: shared cache with server-side TTL expiry
//
// # Keys
//
// A [Keyer] derives keys for each pipeline stage. Keys hash their options so
// that any option change produces a different key:
//
//	k := cache.NewDefaultKeyer()
//	treeKey := k.TreeKey(cache.Hash(doc), cache.TreeKeyOpts{Format: "json"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default time-to-live per stage.
const (
	TTLTree     = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// TreeKeyOpts are the options that affect a built tree map.
type TreeKeyOpts struct {
	Format      string `json:"format"`
	SourceLines bool   `json:"source_lines,omitempty"`
}

// LayoutKeyOpts are the options that affect a computed layout.
type LayoutKeyOpts struct {
	Direction  string  `json:"direction"`
	Threshold  int     `json:"threshold"`
	EdgeStyle  string  `json:"edge_style,omitempty"`
	Animated   bool    `json:"animated,omitempty"`
	Arrow      bool    `json:"arrow,omitempty"`
	NodeWidth  float64 `json:"node_width,omitempty"`
	NodeHeight float64 `json:"node_height,omitempty"`
	Collapsed  string  `json:"collapsed,omitempty"`
}

// ArtifactKeyOpts are the options that affect a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// TreeKey keys the tree map built from a document.
	TreeKey(docHash string, opts TreeKeyOpts) string

	// LayoutKey keys the layout computed from a tree map.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys an artifact rendered from a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TreeKey implements [Keyer].
func (DefaultKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return hashKey("tree", docHash, opts)
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
