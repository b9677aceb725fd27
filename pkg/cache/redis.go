package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/zpam/sms-filter/pkg/model"
)

// Redis shares predictions between processes through a Redis server
type Redis struct {
	client *redis.Client
	config *RedisConfig
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	// Redis connection
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int    `json:"database_num" yaml:"database_num"`

	// Entry expiration, zero keeps entries until evicted
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "zsms:pred",
		DatabaseNum: 0,
		TTL:         24 * time.Hour,
	}
}

// NewRedis connects to Redis and checks the connection
func NewRedis(config *RedisConfig) (*Redis, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	// Parse Redis URL
	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Redis URL")
	}

	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "Redis connection failed")
	}

	return &Redis{client: client, config: config}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (model.Prediction, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Prediction{}, false, nil
	}
	if err != nil {
		return model.Prediction{}, false, errors.Wrap(err, "redis get")
	}

	var p model.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		// A garbled entry is a miss; the next Set overwrites it.
		return model.Prediction{}, false, nil
	}
	return p, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, p model.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode prediction")
	}
	if err := r.client.Set(ctx, r.key(key), data, r.config.TTL).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Reset deletes every entry under the key prefix
func (r *Redis) Reset(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.config.KeyPrefix+":*", 1000).Iterator()

	pipe := r.client.Pipeline()
	count := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		// Execute in batches
		if count >= 100 {
			if _, err := pipe.Exec(ctx); err != nil {
				return errors.Wrap(err, "redis reset")
			}
			pipe = r.client.Pipeline()
			count = 0
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan")
	}

	if count > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return errors.Wrap(err, "redis reset")
		}
	}
	return nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(k string) string {
	return fmt.Sprintf("%s:%s", r.config.KeyPrefix, k)
}
