package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cachelab/embedcache/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 1000, cfg.Cache.MaxSize)
		require.False(t, cfg.Cache.RetainText)
		require.Equal(t, "corpus.yaml", cfg.Demo.CorpusPath)
		require.Equal(t, 4, cfg.Demo.Concurrency)
		require.Equal(t, 2, cfg.Demo.Passes)
		require.Equal(t, 256, cfg.Demo.Dimensions)
		require.Equal(t, "info", cfg.Log.Level)
		require.Empty(t, cfg.OpenAI.APIKey)
		require.Equal(t, "text-embedding-ada-002", cfg.OpenAI.Model)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("CACHE_MAX_SIZE", "32")
		t.Setenv("CACHE_RETAIN_TEXT", "true")
		t.Setenv("DEMO_CORPUS", "other.yaml")
		t.Setenv("DEMO_CONCURRENCY", "8")
		t.Setenv("DEMO_PASSES", "3")
		t.Setenv("DEMO_DIMENSIONS", "512")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("OPENAI_API_KEY", "sk-test-key")
		t.Setenv("CACHE_EMBEDDING_MODEL", "text-embedding-3-small")

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 32, cfg.Cache.MaxSize)
		require.True(t, cfg.Cache.RetainText)
		require.Equal(t, "other.yaml", cfg.Demo.CorpusPath)
		require.Equal(t, 8, cfg.Demo.Concurrency)
		require.Equal(t, 3, cfg.Demo.Passes)
		require.Equal(t, 512, cfg.Demo.Dimensions)
		require.Equal(t, "debug", cfg.Log.Level)
		require.Equal(t, "sk-test-key", cfg.OpenAI.APIKey)
		require.Equal(t, "text-embedding-3-small", cfg.OpenAI.Model)
	})
}
