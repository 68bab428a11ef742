// Package storage provides database connections, repositories and the cache
// abstraction injected into the price feed.
package storage

import (
	"context"
	"time"
)

// Cache is a key to (value, expiry) store. Values are JSON-serialized by the
// implementations so callers pass plain structs. A zero or negative TTL means
// the entry lives for the remainder of the process (backends may still bound
// it, e.g. Redis treats 0 as no expiry too).
//
// Get reports (false, nil) on a miss; errors are reserved for backend
// failures, which callers typically treat as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
