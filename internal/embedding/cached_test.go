package embedding_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cachelab/embedcache/internal/cache"
	"github.com/cachelab/embedcache/internal/embedding"
)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if vec := args.Get(0); vec != nil {
		return vec.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) Name() string {
	return m.Called().String(0)
}

func (m *mockEmbedder) Dimension() int {
	return m.Called().Int(0)
}

// funcEmbedder backs concurrency tests where mock call ordering would be
// too rigid.
type funcEmbedder struct {
	generate  func(ctx context.Context, text string) ([]float32, error)
	dimension int
}

func (f *funcEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	return f.generate(ctx, text)
}

func (f *funcEmbedder) Name() string { return "func" }

func (f *funcEmbedder) Dimension() int { return f.dimension }

func newPipeline(t *testing.T, producer embedding.Embedder, maxSize int) *embedding.CachedEmbedder {
	t.Helper()
	c, err := cache.New(cache.Config{MaxSize: maxSize})
	require.NoError(t, err)
	ce, err := embedding.NewCachedEmbedder(producer, c, nil)
	require.NoError(t, err)
	return ce
}

func TestNewCachedEmbedder_Validation(t *testing.T) {
	c, err := cache.New(cache.Config{})
	require.NoError(t, err)

	_, err = embedding.NewCachedEmbedder(nil, c, nil)
	require.Error(t, err)

	_, err = embedding.NewCachedEmbedder(&mockEmbedder{}, nil, nil)
	require.Error(t, err)
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Generate", mock.Anything, "hello").Return([]float32{1, 2, 3}, nil).Once()

	ce := newPipeline(t, producer, 10)
	ctx := context.Background()

	first, err := ce.Embed(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, first)

	// Second call is served by the cache; Once above fails the test if
	// the producer is consulted again.
	second, err := ce.Embed(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, first, second)

	stats := ce.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, int64(1), stats.Sets)
	require.Equal(t, 1, ce.CacheSize())

	producer.AssertExpectations(t)
}

func TestCachedEmbedder_ProducerError(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Generate", mock.Anything, "boom").Return(nil, errors.New("backend down"))

	ce := newPipeline(t, producer, 10)

	_, err := ce.Embed(context.Background(), "boom")
	require.ErrorContains(t, err, "backend down")
	require.Zero(t, ce.CacheSize())
}

func TestCachedEmbedder_ReturnsCopies(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Generate", mock.Anything, "text").Return([]float32{1, 2}, nil).Once()

	ce := newPipeline(t, producer, 10)
	ctx := context.Background()

	first, err := ce.Embed(ctx, "text")
	require.NoError(t, err)
	first[0] = 99

	second, err := ce.Embed(ctx, "text")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, second)
}

func TestCachedEmbedder_SingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	producer := &funcEmbedder{
		dimension: 1,
		generate: func(ctx context.Context, text string) ([]float32, error) {
			calls.Add(1)
			<-release
			return []float32{42}, nil
		},
	}

	ce := newPipeline(t, producer, 10)

	const workers = 16
	results := make([][]float32, workers)
	errs := make([]error, workers)

	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			results[i], errs[i] = ce.Embed(context.Background(), "same text")
		}()
	}
	started.Wait()
	close(release)
	done.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, []float32{42}, results[i])
	}
	require.Equal(t, int64(1), calls.Load())
	require.Equal(t, 1, ce.CacheSize())
}

func TestCachedEmbedder_EmbedBatch(t *testing.T) {
	var calls atomic.Int64
	producer := &funcEmbedder{
		dimension: 2,
		generate: func(_ context.Context, text string) ([]float32, error) {
			calls.Add(1)
			return []float32{float32(len(text)), 0}, nil
		},
	}

	ce := newPipeline(t, producer, 100)

	texts := []string{"a", "bb", "ccc", "bb", "a"}
	vectors, err := ce.EmbedBatch(context.Background(), texts, 4)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		require.Equal(t, []float32{float32(len(text)), 0}, vectors[i])
	}

	// Three distinct texts, three producer calls.
	require.Equal(t, int64(3), calls.Load())
	require.Equal(t, 3, ce.CacheSize())
}

func TestCachedEmbedder_EmbedBatchError(t *testing.T) {
	producer := &funcEmbedder{
		dimension: 1,
		generate: func(_ context.Context, text string) ([]float32, error) {
			if text == "bad" {
				return nil, errors.New("no embedding for you")
			}
			return []float32{1}, nil
		},
	}

	ce := newPipeline(t, producer, 100)

	_, err := ce.EmbedBatch(context.Background(), []string{"ok", "bad", "fine"}, 2)
	require.ErrorContains(t, err, "no embedding for you")
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Name").Return("mock")
	producer.On("Dimension").Return(8)

	ce := newPipeline(t, producer, 10)
	require.Equal(t, "mock", ce.Name())
	require.Equal(t, 8, ce.Dimension())
}

func TestCachedEmbedder_ClearCache(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Generate", mock.Anything, "text").Return([]float32{1}, nil).Twice()

	ce := newPipeline(t, producer, 10)
	ctx := context.Background()

	_, err := ce.Embed(ctx, "text")
	require.NoError(t, err)
	require.Equal(t, 1, ce.CacheSize())

	ce.ClearCache()
	require.Zero(t, ce.CacheSize())
	require.Equal(t, cache.Stats{}, ce.Stats())

	// A cleared cache computes again.
	_, err = ce.Embed(ctx, "text")
	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestCachedEmbedder_SaveLoadCache(t *testing.T) {
	producer := &mockEmbedder{}
	producer.On("Generate", mock.Anything, "persisted").Return([]float32{7, 8}, nil).Once()

	ce := newPipeline(t, producer, 10)
	ctx := context.Background()

	_, err := ce.Embed(ctx, "persisted")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, ce.SaveCache(path, cache.JSONCodec{}))

	fresh := newPipeline(t, producer, 10)
	require.NoError(t, fresh.LoadCache(path, cache.JSONCodec{}))

	// Served from the disk image, not the producer (Once above guards it).
	vec, err := fresh.Embed(ctx, "persisted")
	require.NoError(t, err)
	require.Equal(t, []float32{7, 8}, vec)
	producer.AssertExpectations(t)
}
