// Package memory provides in-process implementations of outbound ports for
// tests and single-process runs without Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.KeyValueStore = (*Cache)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a mutex-guarded map with per-key expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache creates an empty cache using the wall clock.
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock creates an empty cache that reads time from now.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (c *Cache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *Cache) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if e, ok := c.entries[key]; ok && !c.expired(e) {
			out[key] = e.value
		}
	}
	return out, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.newEntry(value, ttl)
	return nil
}

func (c *Cache) SetMany(_ context.Context, values map[string]string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, value := range values {
		c.entries[key] = c.newEntry(value, ttl)
	}
	return nil
}

func (c *Cache) newEntry(value string, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	return e
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Cache) Close() error {
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !c.expired(e) {
			n++
		}
	}
	return n
}
