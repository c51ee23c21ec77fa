// Package cache implements a bounded, least-recently-used cache mapping
// input text to previously computed embedding vectors, with usage counters
// and two interchangeable persistence codecs (JSON and binary).
//
// A Cache is not safe for concurrent use. Callers sharing one instance
// across goroutines must serialize access externally; the embedding package
// provides CachedEmbedder for exactly that.
package cache

import (
	"container/list"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxSize is the entry capacity used when Config.MaxSize is zero.
const DefaultMaxSize = 1000

// Config configures a Cache.
type Config struct {
	// MaxSize is the entry capacity. Zero means DefaultMaxSize, negative
	// is rejected by New.
	MaxSize int

	// RetainText keeps the original input text on every entry. Only the
	// JSON layout persists retained text.
	RetainText bool

	// Logger receives eviction events at debug level and persistence
	// events at info level. Nil disables logging.
	Logger *zap.Logger
}

// Cache is a bounded LRU map from text fingerprints to embedding vectors.
type Cache struct {
	maxSize    int
	retainText bool
	logger     *zap.Logger

	// entries indexes the recency list by key. The list owns the *Entry
	// values, front is most recently used.
	entries map[string]*list.Element
	order   *list.List
	stats   Stats
}

// New creates a Cache from cfg.
func New(cfg Config) (*Cache, error) {
	if cfg.MaxSize < 0 {
		return nil, fmt.Errorf("max size cannot be negative, got %d", cfg.MaxSize)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Cache{
		maxSize:    cfg.MaxSize,
		retainText: cfg.RetainText,
		logger:     cfg.Logger,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}, nil
}

// Get returns the vector cached for text. A hit refreshes the entry's
// recency and hit count; a miss only increments the miss counter, callers
// are expected to compute the embedding and Set it.
func (c *Cache) Get(text string) ([]float32, bool) {
	elem, ok := c.entries[KeyFor(text)]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	entry := elem.Value.(*Entry)
	entry.HitCount++
	entry.LastAccessedAt = time.Now()
	c.order.MoveToFront(elem)
	return cloneVector(entry.Vector), true
}

// Set stores the vector for text. An existing entry keeps its hit count and
// creation time but takes the new vector and fresh recency. A new entry
// evicts the least recently used one first when the cache is full. Set
// always increments the set counter.
func (c *Cache) Set(text string, vector []float32) {
	c.stats.Sets++
	now := time.Now()
	key := KeyFor(text)

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Vector = cloneVector(vector)
		entry.LastAccessedAt = now
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &Entry{
		Key:            key,
		Vector:         cloneVector(vector),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if c.retainText {
		entry.Text = text
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Has reports whether text is cached. It touches neither recency nor stats.
func (c *Cache) Has(text string) bool {
	_, ok := c.entries[KeyFor(text)]
	return ok
}

// Clear empties the cache and zeroes its stats. Capacity and text retention
// keep their configured values.
func (c *Cache) Clear() {
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.stats = Stats{}
}

// Size returns the number of cached entries.
func (c *Cache) Size() int { return c.order.Len() }

// MaxSize returns the entry capacity.
func (c *Cache) MaxSize() int { return c.maxSize }

// RetainsText reports whether entries keep their original text.
func (c *Cache) RetainsText() bool { return c.retainText }

// Stats returns a copy of the usage counters.
func (c *Cache) Stats() Stats { return c.stats }

// evictOldest removes the entry at the back of the recency list. The list
// order is the eviction authority: entries touched within the same clock
// tick are already ordered by access sequence, so ties resolve to the
// earliest-touched entry without consulting timestamps.
func (c *Cache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*Entry)
	c.order.Remove(back)
	delete(c.entries, entry.Key)
	c.stats.Evictions++
	c.logger.Debug("evicted least recently used entry",
		zap.String("key", entry.Key),
		zap.Int("size", c.order.Len()),
		zap.Int("max_size", c.maxSize))
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
