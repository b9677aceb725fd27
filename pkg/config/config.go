package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/learning"
	"github.com/zpam/sms-filter/pkg/model"
)

// Config represents zsms configuration
type Config struct {
	// Training data
	Dataset DatasetConfig `yaml:"dataset"`

	// Train/test split
	Split SplitConfig `yaml:"split"`

	// Feature extraction
	Features FeaturesConfig `yaml:"features"`

	// Naive Bayes settings
	Classifier ClassifierConfig `yaml:"classifier"`

	// Model artifact
	Model ModelConfig `yaml:"model"`

	// Prediction cache
	Cache CacheConfig `yaml:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// DatasetConfig locates the labeled CSV
type DatasetConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// SplitConfig controls the stratified hold-out split
type SplitConfig struct {
	TestFraction float64 `yaml:"test_fraction" validate:"gt=0,lt=1"`
	Seed         uint64  `yaml:"seed"`
}

// FeaturesConfig controls tokenization
type FeaturesConfig struct {
	MinTokenLength int `yaml:"min_token_length" validate:"gte=1,lte=64"`
}

// ClassifierConfig contains Naive Bayes parameters
type ClassifierConfig struct {
	Alpha float64 `yaml:"alpha" validate:"gt=0"` // additive smoothing, 1.0 = Laplace
}

// ModelConfig locates the model artifact
type ModelConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// CacheConfig selects the prediction cache backend
type CacheConfig struct {
	// Backend selection: "none", "memory" or "redis"
	Backend string `yaml:"backend" validate:"oneof=none memory redis"`

	// In-memory LRU entries
	Size int `yaml:"size" validate:"gte=0"`

	Redis RedisCacheConfig `yaml:"redis"`
}

// RedisCacheConfig contains Redis connection settings
type RedisCacheConfig struct {
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num" validate:"gte=0"`
	TTL         string `yaml:"ttl"` // Duration string like "24h"
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Log file path, empty = stderr
	File string `yaml:"file"`

	// json, text
	Format string `yaml:"format" validate:"oneof=json text"`

	// Rotation, only used with a log file
	MaxSizeMB  int `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int `yaml:"max_backups" validate:"gte=0"`
}

// envOverrides are read from ZSMS_* environment variables
type envOverrides struct {
	DatasetPath  string `envconfig:"DATASET_PATH"`
	ModelPath    string `envconfig:"MODEL_PATH"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	CacheBackend string `envconfig:"CACHE_BACKEND"`
	RedisURL     string `envconfig:"REDIS_URL"`
}

// EnvPrefix is the environment variable prefix for overrides
const EnvPrefix = "ZSMS"

// DefaultConfig returns zsms default configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path: dataset.DefaultPath,
		},
		Split: SplitConfig{
			TestFraction: dataset.DefaultTestFraction,
			Seed:         dataset.DefaultSeed,
		},
		Features: FeaturesConfig{
			MinTokenLength: learning.DefaultMinTokenLength,
		},
		Classifier: ClassifierConfig{
			Alpha: learning.DefaultAlpha,
		},
		Model: ModelConfig{
			Path: model.DefaultPath,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Size:    4096,
			Redis: RedisCacheConfig{
				RedisURL:    "redis://localhost:6379",
				KeyPrefix:   "zsms:pred",
				DatabaseNum: 0,
				TTL:         "24h",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file, then applies environment
// overrides. An empty path yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	if configPath != "" {
		// Check if config file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, errors.Errorf("config file not found: %s", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return config, nil
}

// ApplyEnv overrides settings from ZSMS_* environment variables
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errors.Wrap(err, "failed to read environment")
	}

	if env.DatasetPath != "" {
		c.Dataset.Path = env.DatasetPath
	}
	if env.ModelPath != "" {
		c.Model.Path = env.ModelPath
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.CacheBackend != "" {
		c.Cache.Backend = env.CacheBackend
	}
	if env.RedisURL != "" {
		c.Cache.Redis.RedisURL = env.RedisURL
	}
	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	// Validate redis settings
	if c.Cache.Backend == "redis" {
		if c.Cache.Redis.RedisURL == "" {
			return errors.New("cache.redis.redis_url is required for the redis backend")
		}
		if _, err := c.Cache.Redis.TTLDuration(); err != nil {
			return err
		}
	}

	if c.Cache.Backend == "memory" && c.Cache.Size < 1 {
		return errors.New("cache.size must be >= 1 for the memory backend")
	}

	return nil
}

// TTLDuration parses the Redis entry TTL; empty means no expiry
func (r RedisCacheConfig) TTLDuration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid cache.redis.ttl %q", r.TTL)
	}
	if d < 0 {
		return 0, errors.New("cache.redis.ttl must not be negative")
	}
	return d, nil
}

// Tokenizer returns the tokenizer described by the features section
func (c *Config) Tokenizer() learning.Tokenizer {
	return learning.NewTokenizer(c.Features.MinTokenLength)
}
