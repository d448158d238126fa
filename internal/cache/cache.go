// Package cache holds the per-entity fitness cache and the best-ever memory.
//
// A Cache keeps the last computed value of derived attributes and must be
// cleared whenever the owning entity's genetic content changes. A Memory is
// independent of that rule: it only changes through an explicit Backup.
package cache

import "maps"

// KeyFitness is the cache entry every evaluated entity carries.
const KeyFitness = "fitness"

// Cacheable is implemented by entities that own a Cache.
type Cacheable interface {
	Cache() map[string]float64
	ClearCache(keys ...string)
	SetCache(values map[string]float64)
}

// Cache maps attribute names to their last computed value. A missing key is
// the unset state.
type Cache struct {
	values map[string]float64
}

func New() *Cache {
	return &Cache{values: make(map[string]float64)}
}

func (c *Cache) Get(key string) (float64, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Cache) Put(key string, v float64) {
	c.values[key] = v
}

// Set forces the given values, e.g. when propagating a clone's cache.
func (c *Cache) Set(values map[string]float64) {
	for k, v := range values {
		c.values[k] = v
	}
}

// Clear resets the named entries, or every entry when no key is given.
func (c *Cache) Clear(keys ...string) {
	if len(keys) == 0 {
		clear(c.values)
		return
	}
	for _, k := range keys {
		delete(c.values, k)
	}
}

// Cleared reports whether every named entry (or all entries) is unset.
func (c *Cache) Cleared(keys ...string) bool {
	if len(keys) == 0 {
		return len(c.values) == 0
	}
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the current entries.
func (c *Cache) Snapshot() map[string]float64 {
	return maps.Clone(c.values)
}

// GetOrCompute returns the cached value for key, computing and storing it
// first if unset.
func (c *Cache) GetOrCompute(key string, compute func() float64) float64 {
	if v, ok := c.values[key]; ok {
		return v
	}
	v := compute()
	c.values[key] = v
	return v
}
