package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "sms_spam_no_header.csv", cfg.Dataset.Path)
	require.Equal(t, "spam_model.zsms", cfg.Model.Path)
	require.Equal(t, 0.2, cfg.Split.TestFraction)
	require.Equal(t, uint64(42), cfg.Split.Seed)
	require.Equal(t, 1.0, cfg.Classifier.Alpha)
	require.Equal(t, 2, cfg.Tokenizer().MinTokenLength)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Split, cfg.Split)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "zsms.yaml")

	cfg := DefaultConfig()
	cfg.Split.TestFraction = 0.25
	cfg.Classifier.Alpha = 0.5
	cfg.Cache.Backend = "none"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 0.25, loaded.Split.TestFraction)
	require.Equal(t, 0.5, loaded.Classifier.Alpha)
	require.Equal(t, "none", loaded.Cache.Backend)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zsms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  path: out/model.zsms\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "out/model.zsms", cfg.Model.Path)
	require.Equal(t, "sms_spam_no_header.csv", cfg.Dataset.Path)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "config file not found")
	// Errors carry the call stack for %+v.
	require.Contains(t, fmt.Sprintf("%+v", err), "config.LoadConfig")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("split: [1, 2"), 0o644))
	_, err = LoadConfig(bad)
	require.ErrorContains(t, err, "failed to parse")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("split:\n  test_fraction: 1.5\n"), 0o644))
	_, err = LoadConfig(invalid)
	require.ErrorContains(t, err, "invalid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero alpha", func(c *Config) { c.Classifier.Alpha = 0 }},
		{"fraction zero", func(c *Config) { c.Split.TestFraction = 0 }},
		{"token length", func(c *Config) { c.Features.MinTokenLength = 0 }},
		{"empty model path", func(c *Config) { c.Model.Path = "" }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"memory cache without size", func(c *Config) { c.Cache.Size = 0 }},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.RedisURL = "" }},
		{"redis bad ttl", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.TTL = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ZSMS_MODEL_PATH", "/tmp/env.zsms")
	t.Setenv("ZSMS_DATASET_PATH", "/data/sms.csv")
	t.Setenv("ZSMS_LOG_LEVEL", "debug")
	t.Setenv("ZSMS_CACHE_BACKEND", "redis")
	t.Setenv("ZSMS_REDIS_URL", "redis://cache:6379/2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.zsms", cfg.Model.Path)
	require.Equal(t, "/data/sms.csv", cfg.Dataset.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, "redis://cache:6379/2", cfg.Cache.Redis.RedisURL)
}

func TestTTLDuration(t *testing.T) {
	d, err := RedisCacheConfig{TTL: "90m"}.TTLDuration()
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, d)

	d, err = RedisCacheConfig{}.TTLDuration()
	require.NoError(t, err)
	require.Zero(t, d)

	_, err = RedisCacheConfig{TTL: "-1h"}.TTLDuration()
	require.Error(t, err)
}
