// Package rendercache holds rendered chapter artifacts in a fixed-size
// LRU keyed by work and chapter.
package rendercache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 20

// Key identifies one chapter of one work.
type Key struct {
	WorkID  string
	Chapter int
}

func (k Key) String() string {
	return fmt.Sprintf("series_%s@%d", k.WorkID, k.Chapter)
}

// Cache is safe for concurrent use; every operation runs under the
// LRU's single lock.
type Cache struct {
	lru *lru.Cache[Key, []byte]
}

func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("render cache capacity must be positive, got %d", capacity)
	}
	c, err := lru.New[Key, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the artifact for k and marks it most recently used.
func (c *Cache) Get(k Key) ([]byte, bool) {
	return c.lru.Get(k)
}

// Put stores artifact under k unless k is already present, in which case
// the existing artifact is kept and Put reports false. Storing into a
// full cache evicts the least recently used key.
func (c *Cache) Put(k Key, artifact []byte) bool {
	present, _ := c.lru.ContainsOrAdd(k, artifact)
	return !present
}

// Invalidate removes k and reports whether it was present.
func (c *Cache) Invalidate(k Key) bool {
	return c.lru.Remove(k)
}

// InvalidateWork removes every chapter of one work and returns how many
// were removed.
func (c *Cache) InvalidateWork(workID string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if k.WorkID == workID && c.lru.Remove(k) {
			n++
		}
	}
	return n
}

func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}

// Contains reports whether k is cached without touching its recency.
func (c *Cache) Contains(k Key) bool {
	return c.lru.Contains(k)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// Keys returns the cached keys from oldest to newest.
func (c *Cache) Keys() []Key {
	return c.lru.Keys()
}
