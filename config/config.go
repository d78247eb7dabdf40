// Package config loads process-level settings for the reqmatch binaries.
//
// Settings come from defaults, an optional YAML file and REQMATCH_ prefixed
// environment variables, in increasing order of precedence. Nested keys map
// to variables by replacing dots with underscores, so search.threshold is
// REQMATCH_SEARCH_THRESHOLD.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/search"
	"github.com/poiesic/reqmatch/training"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REQMATCH"

// Embedding providers.
const (
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

var (
	// ErrInvalidConfig is returned when a loaded value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds all process-level settings.
type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Search         SearchConfig         `mapstructure:"search"`
	Training       TrainingConfig       `mapstructure:"training"`
	Server         ServerConfig         `mapstructure:"server"`
}

// LogConfig controls the default slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DatabaseConfig locates the Badger store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, hashing
	Host       string `mapstructure:"host"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// CircuitBreakerConfig guards calls to a remote embedding service.
type CircuitBreakerConfig struct {
	MaxFailures uint32 `mapstructure:"max_failures"` // 0 disables the breaker
	Timeout     int    `mapstructure:"timeout"`      // in seconds
}

// SearchConfig tunes the searcher.
type SearchConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	PoolSize  int     `mapstructure:"pool_size"`
}

// TrainingConfig tunes dataset preparation.
type TrainingConfig struct {
	SampleLimit int    `mapstructure:"sample_limit"`
	LabelMap    string `mapstructure:"label_map"` // empty disables persistence
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Load reads configuration from path, if not empty, and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()

	v.SetDefault("log.level", "info")

	v.SetDefault("database.path", "./reqmatch_db")

	v.SetDefault("embedding.provider", ProviderOpenAI)
	v.SetDefault("embedding.host", aiDefaults.EmbeddingHost)
	v.SetDefault("embedding.model", aiDefaults.EmbeddingModel)
	v.SetDefault("embedding.dimensions", aiDefaults.Dimensions)

	v.SetDefault("circuit_breaker.max_failures", aiDefaults.BreakerMaxFailures)
	v.SetDefault("circuit_breaker.timeout", int(aiDefaults.BreakerTimeout/time.Second))

	v.SetDefault("search.threshold", search.DefaultThreshold)
	v.SetDefault("search.pool_size", runtime.NumCPU())

	v.SetDefault("training.sample_limit", training.DefaultSampleLimit)
	v.SetDefault("training.label_map", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
}

// Validate checks that every value is in range.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderHashing:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidConfig)
	}
	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		return fmt.Errorf("%w: search threshold %v outside [-1, 1]", ErrInvalidConfig, c.Search.Threshold)
	}
	if c.Search.PoolSize < 1 {
		return fmt.Errorf("%w: search pool size must be positive", ErrInvalidConfig)
	}
	if c.Training.SampleLimit < 0 {
		return fmt.Errorf("%w: training sample limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// AIConfig converts the embedding settings to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithDimensions(c.Embedding.Dimensions),
		ai.WithBreaker(c.CircuitBreaker.MaxFailures, time.Duration(c.CircuitBreaker.Timeout)*time.Second),
	)
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
