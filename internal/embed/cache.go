package embed

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	key       string
	vec       []float32
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache with TTL support.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
}

func newLRUCache(capacity int, ttl time.Duration) *lruCache {
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

func (c *lruCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*cacheEntry)
	if time.Now().After(ent.expiresAt) {
		c.lru.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return ent.vec, true
}

func (c *lruCache) set(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		ent := elem.Value.(*cacheEntry)
		ent.vec = vec
		ent.expiresAt = expiresAt
		return
	}
	elem := c.lru.PushFront(&cacheEntry{key: key, vec: vec, expiresAt: expiresAt})
	c.items[key] = elem
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// CachedEmbedder memoises embeddings behind an LRU with TTL. Identical
// queries within a conversation hit the cache instead of the API.
type CachedEmbedder struct {
	inner Embedder
	cache *lruCache
}

// NewCachedEmbedder wraps an embedder with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: newLRUCache(capacity, ttl)}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := c.cache.get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.set(key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
