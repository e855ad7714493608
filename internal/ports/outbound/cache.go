package outbound

import (
	"context"
	"time"
)

// KeyValueStore is the keeper's shared cache. It holds price attestations,
// asset pairs and role checkpoints and must survive process restarts.
type KeyValueStore interface {
	// Get returns found=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value. A zero ttl keeps the key until it is deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetMany stores several values with the same ttl.
	SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error

	// GetMany returns the subset of keys that are present.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)

	Delete(ctx context.Context, key string) error

	Close() error
}
