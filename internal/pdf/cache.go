package pdf

import (
	"container/list"
	"image"
	"sync"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

// DefaultCacheCapacity holds a front and a back sheet for a couple of
// workers.
const DefaultCacheCapacity = 4

// PageKey identifies one rendered page.
type PageKey struct {
	DocumentID models.DocumentID
	PageNumber int
	DPI        float64
}

type CacheStats struct {
	Hits    int
	Misses  int
	Evicted int
}

// PageCache keeps the most recently rendered pages of one export job so a
// sheet is decoded once rather than once per cell. Concurrent requests for
// the same page wait for a single render. Failed renders are cached too.
type PageCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[PageKey]*list.Element
	order    *list.List
	stats    CacheStats
}

type cacheEntry struct {
	key   PageKey
	ready chan struct{}
	img   image.Image
	err   error
}

func NewPageCache(capacity int) *PageCache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &PageCache{
		capacity: capacity,
		entries:  make(map[PageKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached page for key, calling render on a miss.
func (c *PageCache) Get(key PageKey, render func() (image.Image, error)) (image.Image, error) {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		c.stats.Hits++
		entry := el.Value.(*cacheEntry)
		c.mu.Unlock()

		<-entry.ready
		return entry.img, entry.err
	}

	entry := &cacheEntry{key: key, ready: make(chan struct{})}
	c.entries[key] = c.order.PushFront(entry)
	c.stats.Misses++
	c.evictLocked()
	c.mu.Unlock()

	entry.img, entry.err = render()
	close(entry.ready)
	return entry.img, entry.err
}

func (c *PageCache) evictLocked() {
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.stats.Evicted++
	}
}

func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *PageCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Purge drops every page. Called when a job ends.
func (c *PageCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[PageKey]*list.Element)
	c.order.Init()
}
