package thumbcache

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"go.uber.org/zap"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 100

// ErrNoExtractor is returned on a miss when no extractor is configured.
var ErrNoExtractor = errors.New("thumbnail extraction unavailable")

// Key identifies one thumbnail.
type Key struct {
	Path    string
	IsVideo bool
}

// Extractor produces JPEG bytes for a media file.
type Extractor interface {
	ExtractFrame(ctx context.Context, path string, isVideo bool) ([]byte, error)
}

// Cache is a bounded FIFO map of thumbnails.
type Cache struct {
	log       *zap.Logger
	extractor Extractor
	capacity  int

	mu      sync.Mutex
	entries map[Key][]byte
	order   []Key
}

// New creates a thumbnail cache.
func New(log *zap.Logger, extractor Extractor, capacity int) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		log:       log,
		extractor: extractor,
		capacity:  capacity,
		entries:   make(map[Key][]byte, capacity),
	}
}

// Get returns the cached thumbnail for key, extracting it on a miss.
// Concurrent misses for one key may both extract; the first insert wins.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, error) {
	if data, ok := c.lookup(key); ok {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}
	metrics.ThumbnailCacheMisses.Inc()
	if c.extractor == nil {
		return nil, ErrNoExtractor
	}
	data, err := c.extractor.ExtractFrame(ctx, key.Path, key.IsVideo)
	if err != nil {
		c.log.Debug("thumbnail extraction failed", zap.String("path", key.Path), zap.Error(err))
		return nil, err
	}
	return c.insert(key, data), nil
}

// Len returns the number of cached thumbnails.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *Cache) insert(key Key, data []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = data
	c.order = append(c.order, key)
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	metrics.ThumbnailCacheEntries.Set(float64(len(c.entries)))
	return data
}
