package watched

import (
	"sync"

	"tmovies/models"
)

// Cache is the in-memory projection of the durable collection, keyed by
// the composite id and preserving durable order. It is rebuilt wholesale
// at startup and refreshed per key after each mutation.
type Cache struct {
	mu    sync.RWMutex
	order []models.WatchedKey
	byKey map[models.WatchedKey]models.WatchedItem
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[models.WatchedKey]models.WatchedItem)}
}

// Rebuild replaces the whole projection with the given collection.
func (c *Cache) Rebuild(items []models.WatchedItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = make([]models.WatchedKey, 0, len(items))
	c.byKey = make(map[models.WatchedKey]models.WatchedItem, len(items))
	for _, item := range items {
		key := item.Key()
		if _, exists := c.byKey[key]; !exists {
			c.order = append(c.order, key)
		}
		c.byKey[key] = item
	}
}

// Replace swaps a single entry, keeping its position when it already
// exists and appending otherwise.
func (c *Cache) Replace(item models.WatchedItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := item.Key()
	if _, exists := c.byKey[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byKey[key] = item
}

// Remove drops an entry. Removing an absent key is a no-op.
func (c *Cache) Remove(key models.WatchedKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byKey[key]; !exists {
		return
	}
	delete(c.byKey, key)
	for i := range c.order {
		if c.order[i] == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// All returns the projection in durable order.
func (c *Cache) All() []models.WatchedItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]models.WatchedItem, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, c.byKey[key])
	}
	return items
}

// Get looks up a single entry.
func (c *Cache) Get(key models.WatchedKey) (models.WatchedItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byKey[key]
	return item, ok
}

// IsWatched reports whether an entry exists for the key.
func (c *Cache) IsWatched(key models.WatchedKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byKey[key]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
