package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/model"
)

var testRedisConfig = &RedisConfig{
	RedisURL:    "redis://localhost:6379",
	KeyPrefix:   "zsms:test:pred",
	DatabaseNum: 1, // Use separate database for testing
	TTL:         time.Minute,
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

var spamPrediction = model.Prediction{Label: dataset.Spam, SpamPct: 91.5, HamPct: 8.5}

func TestKey(t *testing.T) {
	require.Equal(t, Key("run-1", "hello"), Key("run-1", "hello"))
	require.NotEqual(t, Key("run-1", "hello"), Key("run-2", "hello"))
	require.NotEqual(t, Key("run-1", "hello"), Key("run-1", "hello!"))
	require.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	require.Len(t, Key("run", "text"), 40)

	// The tokenizer ignores case and surrounding whitespace.
	require.Equal(t, Key("run-1", "WIN Cash"), Key("run-1", "  win cash\n"))
	require.NotEqual(t, Key("run-1", "win cash"), Key("run-1", "win  cash now"))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(2)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", spamPrediction))
	got, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, spamPrediction, got)

	require.NoError(t, c.Set(ctx, "b", spamPrediction))
	require.NoError(t, c.Set(ctx, "c", spamPrediction))
	require.Equal(t, 2, c.Len())

	// "a" was least recently used once "b" and "c" arrived after the Get.
	_, ok, _ = c.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, c.Reset(ctx))
	require.Zero(t, c.Len())
	require.NoError(t, c.Set(ctx, "d", spamPrediction))

	require.NoError(t, c.Close())
	require.Zero(t, c.Len())

	_, err = NewMemory(0)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c PredictionCache = Nop{}
	require.NoError(t, c.Set(ctx, "a", spamPrediction))
	require.NoError(t, c.Reset(ctx))
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewFromConfig(t *testing.T) {
	c, err := New(config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	require.IsType(t, Nop{}, c)

	c, err = New(config.CacheConfig{Backend: "memory", Size: 8})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, c)

	_, err = New(config.CacheConfig{Backend: "memcached"})
	require.Error(t, err)
	require.Contains(t, fmt.Sprintf("%+v", err), "cache.New")

	_, err = New(config.CacheConfig{Backend: "redis", Redis: config.RedisCacheConfig{RedisURL: "not a url"}})
	require.Error(t, err)
}

func TestRedis(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}

	ctx := context.Background()
	c, err := NewRedis(testRedisConfig)
	require.NoError(t, err)
	defer func() {
		c.Reset(ctx) // Clean up
		c.Close()
	}()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k1", spamPrediction))
	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, spamPrediction, got)

	ttl, err := c.client.TTL(ctx, c.key("k1")).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Reset(ctx))
	_, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}
