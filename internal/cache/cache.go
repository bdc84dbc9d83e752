// Package cache provides a thread-safe in-memory cache for reverse-geocode
// results with TTL expiry.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gpxstatus/server/internal/clients/nominatim"
)

// DefaultTTL is how long a resolved address stays fresh.
const DefaultTTL = 24 * time.Hour

// GeocodeCache caches addresses by exact coordinate pair. Concurrent
// lookups for the same pair within the TTL window share a single underlying
// fetch.
type GeocodeCache struct {
	mutex   sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

// entry is a cached address with its expiry.
type entry struct {
	address   nominatim.Address
	expiresAt time.Time
}

// New creates a geocode cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration) *GeocodeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GeocodeCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// FetchFunc resolves a coordinate pair to an address.
type FetchFunc func(ctx context.Context) (nominatim.Address, error)

// GetOrFetch returns the cached address for the coordinate pair, or runs
// fetch and caches the result. Stale entries are evicted and re-fetched.
// At most one fetch per key is in flight at a time.
func (c *GeocodeCache) GetOrFetch(ctx context.Context, lat, lon float64, fetch FetchFunc) (nominatim.Address, error) {
	key := Key(lat, lon)

	if address, ok := c.get(key); ok {
		return address, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have populated the entry while this
		// one waited on the group.
		if address, ok := c.get(key); ok {
			return address, nil
		}

		address, err := fetch(ctx)
		if err != nil {
			return nominatim.Address{}, err
		}
		c.set(key, address)
		return address, nil
	})
	if err != nil {
		return nominatim.Address{}, err
	}
	return result.(nominatim.Address), nil
}

// Key builds the cache key for an exact coordinate pair.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%v,%v", lat, lon)
}

func (c *GeocodeCache) get(key string) (nominatim.Address, bool) {
	c.mutex.RLock()
	e, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nominatim.Address{}, false
	}
	if c.now().After(e.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nominatim.Address{}, false
	}
	return e.address, true
}

func (c *GeocodeCache) set(key string, address nominatim.Address) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &entry{
		address:   address,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of entries currently held, stale ones included.
func (c *GeocodeCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// CleanupStale removes expired entries and reports how many were dropped.
func (c *GeocodeCache) CleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	var removed int
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
