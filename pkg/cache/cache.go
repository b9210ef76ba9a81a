// Package cache provides a small key/value cache abstraction used by
// the pipeline driver to avoid re-resolving a tenant's SizingProfile
// set on every job.
package cache

import (
	"context"
	"time"
)

// Cache is a generic TTL-aware byte cache. Implementations must treat
// a zero ttl passed to Set as "no expiration".
type Cache interface {
	// Get returns the stored value for key, or hit=false on a miss.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key, expiring after ttl (no expiry if ttl <= 0).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key, and is a no-op if it does not exist.
	Delete(ctx context.Context, key string) error
	// Close releases any underlying connection or file handles.
	Close() error
}

// ProfileSetKey returns the cache key under which a tenant's resolved
// SizingProfile set is stored, per the sizing profile cache described
// for the pipeline driver.
func ProfileSetKey(tenantID string) string {
	return "profiles:" + tenantID
}
