package services

import (
	"context"
	"time"
)

// Cache is the key-value store behind CachingTTS. Synthesized audio is
// immutable for a given request, so entries only ever expire, never update.
type Cache interface {
	// Get retrieves a value by key. Missing keys return "" without error.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with an expiration (0 means no expiry).
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Del removes keys.
	Del(ctx context.Context, keys ...string) error

	// Exists reports whether any of the keys is present.
	Exists(ctx context.Context, keys ...string) (bool, error)

	// Ping probes the backing store.
	Ping(ctx context.Context) error

	// WaitForConnection blocks until the store answers or ctx ends.
	WaitForConnection(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
