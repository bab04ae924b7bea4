/*
Package cache provides the query cache used by the backend client.

PURPOSE:
  Station screens re-read the same backend resources (catalog, prices,
  shift lists) many times while a form is open. The cache keeps GET
  responses for a short TTL and lets mutations invalidate everything
  under a key prefix, the way the browser's query cache invalidates a
  query family after a save.

IMPLEMENTATIONS:
  Memory: mutex-guarded map with per-entry expiry (single process)
  Redis:  go-redis v9 client, shared across service replicas

KEYS:
  Keys are built by the caller, conventionally "<scope>:<path>?<query>",
  so DeletePrefix("station:4:") drops every cached read for station 4.

SEE ALSO:
  - backend/client.go: cache consumer
*/
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque byte values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
