// Package cache stores generated diagram code keyed by document content.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry under the XDG cache directory, for
//     the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP service
//
// Keys are built by a [Keyer] so CLI and server agree on them. [ScopedKeyer]
// prefixes every key, which lets several deployments share one Redis.
package cache

import (
	"context"
	"time"
)

// TTLCode is the default lifetime of a cached generation result.
const TTLCode = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// CodeKey returns the key for code generated from the document with
	// the given content hash.
	CodeKey(docHash string, opts CodeKeyOpts) string
	// QueryKey returns the key for a document planned from a free-text query.
	QueryKey(query string) string
}

// CodeKeyOpts are the generation options that change the output text.
type CodeKeyOpts struct {
	Target   string            `json:"target"`
	Name     string            `json:"name,omitempty"`
	Imports  bool              `json:"imports,omitempty"`
	Detailed bool              `json:"detailed,omitempty"`
	Modules  map[string]string `json:"modules,omitempty"`
}

// DefaultKeyer produces unprefixed keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CodeKey hashes the document hash together with the options.
func (DefaultKeyer) CodeKey(docHash string, opts CodeKeyOpts) string {
	return hashKey("code", docHash, opts)
}

// QueryKey hashes the query text.
func (DefaultKeyer) QueryKey(query string) string {
	return hashKey("query", query)
}
