package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/cachelab/embedcache/internal/embedding/openai"
)

// Config represents the embedcache configuration.
type Config struct {
	Cache  CacheConfig
	Demo   DemoConfig
	Log    LogConfig
	OpenAI openai.Config
}

// CacheConfig contains embedding cache settings.
type CacheConfig struct {
	MaxSize    int  `env:"CACHE_MAX_SIZE"    envDefault:"1000"`
	RetainText bool `env:"CACHE_RETAIN_TEXT" envDefault:"false"`
}

// DemoConfig contains demo pipeline settings.
type DemoConfig struct {
	CorpusPath  string `env:"DEMO_CORPUS"      envDefault:"corpus.yaml"`
	Concurrency int    `env:"DEMO_CONCURRENCY" envDefault:"4"`
	Passes      int    `env:"DEMO_PASSES"      envDefault:"2"`
	Dimensions  int    `env:"DEMO_DIMENSIONS"  envDefault:"256"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*CacheConfig
	*DemoConfig
	*LogConfig
	*openai.Config
}

// Load loads environment files and parses configuration.
func Load() (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Cache,
		&cfg.Demo,
		&cfg.Log,
		&cfg.OpenAI,
	}
}
