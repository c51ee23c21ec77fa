package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cachelab/embedcache/internal/cache"
)

// CachedEmbedder wraps an Embedder with a bounded LRU cache. The cache
// itself is not safe for concurrent use, so this layer owns the required
// coordination: a mutex serializes cache access, and a singleflight group
// keyed by cache key collapses concurrent computations of the same text
// into one producer call that later arrivals wait for.
type CachedEmbedder struct {
	embedder Embedder
	cache    *cache.Cache
	logger   *zap.Logger

	mu     sync.Mutex
	flight singleflight.Group
}

// NewCachedEmbedder creates the caching pipeline around embedder. A nil
// logger disables logging.
func NewCachedEmbedder(embedder Embedder, c *cache.Cache, logger *zap.Logger) (*CachedEmbedder, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c == nil {
		return nil, errors.New("cache is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		embedder: embedder,
		cache:    c,
		logger:   logger,
	}, nil
}

// Embed returns the embedding for text, consulting the cache first. The
// producer runs at most once per text no matter how many goroutines ask
// concurrently: the flight rechecks the cache before computing and stores
// its result before returning, so anyone arriving later is served without a
// second computation.
func (ce *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ce.mu.Lock()
	vector, ok := ce.cache.Get(text)
	ce.mu.Unlock()
	if ok {
		return vector, nil
	}

	result, err, shared := ce.flight.Do(cache.KeyFor(text), func() (any, error) {
		ce.mu.Lock()
		vec, ok := ce.cache.Get(text)
		ce.mu.Unlock()
		if ok {
			return vec, nil
		}

		vec, genErr := ce.embedder.Generate(ctx, text)
		if genErr != nil {
			return nil, fmt.Errorf("generate embedding: %w", genErr)
		}

		ce.mu.Lock()
		ce.cache.Set(text, vec)
		ce.mu.Unlock()
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ce.logger.Debug("joined in-flight embedding computation")
	}

	// Flight results are shared between waiters; hand each caller its own
	// copy, matching what a cache hit returns.
	vec := result.([]float32)
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// EmbedBatch embeds texts concurrently and returns the vectors in input
// order. Concurrency is capped by limit, minimum 1. Duplicate texts within
// the batch compute once.
func (ce *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string, limit int) ([][]float32, error) {
	if limit < 1 {
		limit = 1
	}

	vectors := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := ce.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Name returns the wrapped producer's identifier.
func (ce *CachedEmbedder) Name() string { return ce.embedder.Name() }

// Dimension returns the wrapped producer's vector dimension.
func (ce *CachedEmbedder) Dimension() int { return ce.embedder.Dimension() }

// Stats returns the underlying cache's usage counters.
func (ce *CachedEmbedder) Stats() cache.Stats {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.cache.Stats()
}

// CacheSize returns the number of cached embeddings.
func (ce *CachedEmbedder) CacheSize() int {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.cache.Size()
}

// ClearCache empties the underlying cache and zeroes its stats.
func (ce *CachedEmbedder) ClearCache() {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	ce.cache.Clear()
}

// SaveCache persists the underlying cache to path. The pipeline's mutex
// provides the external serialization the cache requires.
func (ce *CachedEmbedder) SaveCache(path string, codec cache.Codec) error {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.cache.SaveFile(path, codec)
}

// LoadCache replaces the underlying cache's state with the image at path.
func (ce *CachedEmbedder) LoadCache(path string, codec cache.Codec) error {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.cache.LoadFile(path, codec)
}
