// Package cache stores finished predictions keyed by model and message so
// repeated messages skip the classifier.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/model"
)

// PredictionCache defines the interface for prediction caches
type PredictionCache interface {
	Get(ctx context.Context, key string) (model.Prediction, bool, error)
	Set(ctx context.Context, key string, p model.Prediction) error
	Reset(ctx context.Context) error
	Close() error
}

// Key derives a cache key from the model run ID and the message. The
// tokenizer ignores case and surrounding whitespace, so the key does too.
func Key(modelID, text string) string {
	h := sha1.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (PredictionCache, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "memory":
		m, err := NewMemory(cfg.Size)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "redis":
		ttl, err := cfg.Redis.TTLDuration()
		if err != nil {
			return nil, err
		}
		r, err := NewRedis(&RedisConfig{
			RedisURL:    cfg.Redis.RedisURL,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DatabaseNum: cfg.Redis.DatabaseNum,
			TTL:         ttl,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, errors.Errorf("unknown cache backend %q", cfg.Backend)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (model.Prediction, bool, error) {
	return model.Prediction{}, false, nil
}

func (Nop) Set(context.Context, string, model.Prediction) error { return nil }

func (Nop) Reset(context.Context) error { return nil }

func (Nop) Close() error { return nil }

// Ensure all implementations satisfy the interface
var _ PredictionCache = Nop{}
var _ PredictionCache = (*Memory)(nil)
var _ PredictionCache = (*Redis)(nil)
