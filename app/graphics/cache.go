package graphics

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/minio/highwayhash"

	"retrace/app/interfaces"
)

// screenShotHashKey is the hardcoded key used for screenshot content hashing.
// A fixed key means the same payload always produces the same hash, so hashes
// computed locally agree with hashes computed in earlier sessions.
var screenShotHashKey = []byte("retrace screenshot key\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")

// HashScreenShot calculates a HighwayHash of a screenshot payload. Used when
// the backend delivers a payload without its content hash.
func HashScreenShot(data []byte) string {
	h, err := highwayhash.New(screenShotHashKey)
	if err != nil {
		// key length is fixed at 32 bytes, New cannot fail
		return ""
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ScreenShotCache is a byte-size-bounded LRU cache of screenshots keyed by
// content hash. Concurrent readers are safe; the precache manager is the
// only writer that schedules fetches, so eviction pressure stays bounded.
type ScreenShotCache struct {
	mu          sync.RWMutex
	storage     map[string]*ScreenShot
	lru         *lruList
	maxSize     int64
	currentSize int64
	logger      interfaces.Logger

	hits   int64
	misses int64
}

// DefaultScreenShotCacheSize is the default cache size limit (100MB)
const DefaultScreenShotCacheSize = 100 * 1024 * 1024

// NewScreenShotCache creates a cache bounded to maxSize bytes of payload.
func NewScreenShotCache(maxSize int64) *ScreenShotCache {
	if maxSize <= 0 {
		maxSize = DefaultScreenShotCacheSize
	}
	return &ScreenShotCache{
		storage: make(map[string]*ScreenShot),
		lru:     newLRUList(),
		maxSize: maxSize,
	}
}

// SetLogger sets the logger for the cache.
func (c *ScreenShotCache) SetLogger(logger interfaces.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Get retrieves a screenshot and marks it as recently used.
func (c *ScreenShotCache) Get(hash string) (*ScreenShot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, exists := c.storage[hash]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	c.lru.moveToFront(hash)
	return s, true
}

// Has reports whether the screenshot for the given hash is already cached,
// without touching LRU order.
func (c *ScreenShotCache) Has(hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.storage[hash]
	return exists
}

// Add inserts a screenshot, evicting least-recently-used entries until the
// cache fits its size limit. Re-adding an existing hash refreshes its LRU
// position but keeps the original payload.
func (c *ScreenShotCache) Add(s *ScreenShot) {
	if s == nil || s.Hash == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.storage[s.Hash]; exists {
		c.lru.moveToFront(s.Hash)
		return
	}

	c.storage[s.Hash] = s
	c.lru.addToFront(s.Hash)
	c.currentSize += int64(len(s.Data))

	for c.currentSize > c.maxSize && c.lru.size > 1 {
		oldest := c.lru.removeOldest()
		if oldest == "" {
			break
		}
		if victim, ok := c.storage[oldest]; ok {
			c.currentSize -= int64(len(victim.Data))
			delete(c.storage, oldest)
			if c.logger != nil {
				c.logger.Log("debug", fmt.Sprintf("[SCREENSHOT_CACHE] Evicted %s (%d bytes)", oldest, len(victim.Data)))
			}
		}
	}
}

// SetMaxSize changes the size limit, evicting least-recently-used entries
// until the cache fits the new limit.
func (c *ScreenShotCache) SetMaxSize(maxSize int64) {
	if maxSize <= 0 {
		maxSize = DefaultScreenShotCacheSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = maxSize
	for c.currentSize > c.maxSize && c.lru.size > 1 {
		oldest := c.lru.removeOldest()
		if oldest == "" {
			break
		}
		if victim, ok := c.storage[oldest]; ok {
			c.currentSize -= int64(len(victim.Data))
			delete(c.storage, oldest)
		}
	}
}

// CacheStats contains screenshot cache statistics for the frontend.
type CacheStats struct {
	TotalEntries int     `json:"totalEntries"`
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
}

// Stats returns the current cache statistics.
func (c *ScreenShotCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalEntries: len(c.storage),
		TotalSize:    c.currentSize,
		MaxSize:      c.maxSize,
		Hits:         atomic.LoadInt64(&c.hits),
		Misses:       atomic.LoadInt64(&c.misses),
	}
	if c.maxSize > 0 {
		stats.UsagePercent = float64(c.currentSize) / float64(c.maxSize) * 100
	}
	return stats
}
