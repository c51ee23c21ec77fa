package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/cachelab/embedcache/internal/cache"
	"github.com/cachelab/embedcache/internal/config"
	"github.com/cachelab/embedcache/internal/corpus"
	"github.com/cachelab/embedcache/internal/embedding"
	"github.com/cachelab/embedcache/internal/embedding/local"
	"github.com/cachelab/embedcache/internal/embedding/openai"
	"github.com/cachelab/embedcache/internal/observability"
)

func newDemoCmd() *cobra.Command {
	var (
		corpusPath string
		jsonPath   string
		binaryPath string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Embed a corpus through the cache and persist the result",
		Long: `Runs every corpus text through the caching pipeline for the configured
number of passes, prints hit rates per pass, writes the cache to both image
formats, and proves the binary image round-trips by reloading it.

With OPENAI_API_KEY set the pipeline calls the OpenAI embeddings API;
otherwise it uses a deterministic local producer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := buildContainer()
			if err != nil {
				return err
			}
			return container.Invoke(func(p demoParams) error {
				return runDemo(cmd.Context(), p, corpusPath, jsonPath, binaryPath)
			})
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "corpus file (defaults to DEMO_CORPUS)")
	cmd.Flags().StringVar(&jsonPath, "save-json", "cache.json", "path for the JSON image")
	cmd.Flags().StringVar(&binaryPath, "save-binary", "cache.bin", "path for the binary image")
	return cmd
}

type demoParams struct {
	dig.In

	Demo     *config.DemoConfig
	Logger   *zap.Logger
	Pipeline *embedding.CachedEmbedder
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration
		config.Load,
		config.ParseDependenciesConfig,
		// Observability
		newLogger,
		// Cache and pipeline
		newCache,
		newEmbedder,
		embedding.NewCachedEmbedder,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, fmt.Errorf("build container: %w", err)
		}
	}
	return container, nil
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	return observability.InitLogger(cfg.Level)
}

func newCache(cfg *config.CacheConfig, logger *zap.Logger) (*cache.Cache, error) {
	return cache.New(cache.Config{
		MaxSize:    cfg.MaxSize,
		RetainText: cfg.RetainText,
		Logger:     logger,
	})
}

// newEmbedder picks the producer: OpenAI when an API key is configured,
// otherwise the deterministic local one.
func newEmbedder(openaiCfg *openai.Config, demo *config.DemoConfig, logger *zap.Logger) (embedding.Embedder, error) {
	if openaiCfg.APIKey != "" {
		gen, err := openai.NewGenerator(*openaiCfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using OpenAI embedding producer", zap.String("model", openaiCfg.Model))
		return gen, nil
	}

	emb, err := local.New(demo.Dimensions)
	if err != nil {
		return nil, err
	}
	logger.Info("no OpenAI API key set, using deterministic local producer",
		zap.Int("dimensions", emb.Dimension()))
	return emb, nil
}

func runDemo(ctx context.Context, p demoParams, corpusPath, jsonPath, binaryPath string) error {
	if corpusPath == "" {
		corpusPath = p.Demo.CorpusPath
	}

	docs, err := corpus.Load(corpusPath)
	if err != nil {
		return err
	}
	texts := docs.Texts()
	p.Logger.Info("corpus loaded",
		zap.String("path", corpusPath),
		zap.Int("documents", len(texts)))

	passes := p.Demo.Passes
	if passes < 1 {
		passes = 1
	}
	for pass := 1; pass <= passes; pass++ {
		start := time.Now()
		if _, err := p.Pipeline.EmbedBatch(ctx, texts, p.Demo.Concurrency); err != nil {
			return err
		}
		stats := p.Pipeline.Stats()
		fmt.Printf("pass %d: embedded %d texts in %s (hits=%d misses=%d, hit rate %s)\n",
			pass, len(texts), time.Since(start).Round(time.Millisecond),
			stats.Hits, stats.Misses, stats.HitRate())
	}

	stats := p.Pipeline.Stats()
	fmt.Printf("cache: %d entries, %d sets, %d evictions, hit rate %s\n",
		p.Pipeline.CacheSize(), stats.Sets, stats.Evictions, stats.HitRate())

	if err := p.Pipeline.SaveCache(jsonPath, cache.JSONCodec{}); err != nil {
		return err
	}
	if err := p.Pipeline.SaveCache(binaryPath, cache.BinaryCodec{}); err != nil {
		return err
	}
	fmt.Printf("saved %s and %s\n", jsonPath, binaryPath)

	// Round-trip check: a fresh cache loaded from the binary image must
	// serve the corpus without recomputing.
	fresh, err := cache.New(cache.Config{Logger: p.Logger})
	if err != nil {
		return err
	}
	if err := fresh.LoadFile(binaryPath, cache.BinaryCodec{}); err != nil {
		return err
	}
	served := lo.CountBy(texts, func(text string) bool {
		_, ok := fresh.Get(text)
		return ok
	})
	fmt.Printf("reloaded %s: %d/%d corpus texts served from the image\n",
		binaryPath, served, len(texts))
	return nil
}
