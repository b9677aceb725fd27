// Package classify is the inference boundary: it rejects unusable input,
// consults the prediction cache, and formats results for callers.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/apperr"
	"github.com/zpam/sms-filter/pkg/cache"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
)

// Service classifies messages with a loaded model.
type Service struct {
	model    *model.Model
	cache    cache.PredictionCache
	logger   *zap.Logger
	profiler *profiler.Profiler
	modelID  string
}

// Option configures a Service.
type Option func(*Service)

// WithCache puts a prediction cache in front of the model.
func WithCache(c cache.PredictionCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

// WithProfiler records the latency of every model prediction under "predict".
func WithProfiler(p *profiler.Profiler) Option {
	return func(s *Service) { s.profiler = p }
}

// NewService wraps m. Without options predictions are uncached and silent.
func NewService(m *model.Model, opts ...Option) *Service {
	s := &Service{
		model:   m,
		cache:   cache.Nop{},
		logger:  zap.NewNop(),
		modelID: m.Metadata().RunID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is one classified message.
type Result struct {
	Text string `json:"text"`
	model.Prediction
	Cached bool `json:"cached"`
}

// Classify predicts the label of text. Empty or whitespace-only text fails
// with apperr.ErrEmptyInput. Cache failures are logged and never change the
// outcome.
func (s *Service) Classify(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.Wrap(apperr.ErrEmptyInput, "nothing to classify")
	}

	key := cache.Key(s.modelID, text)
	if p, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("prediction cache read failed", zap.Error(err))
	} else if ok {
		return Result{Text: text, Prediction: p, Cached: true}, nil
	}

	p, err := s.predict(text)
	if err != nil {
		return Result{}, err
	}

	if err := s.cache.Set(ctx, key, p); err != nil {
		s.logger.Warn("prediction cache write failed", zap.Error(err))
	}
	return Result{Text: text, Prediction: p}, nil
}

func (s *Service) predict(text string) (model.Prediction, error) {
	if s.profiler != nil {
		defer s.profiler.Start("predict").Stop()
	}
	return s.model.Predict(text)
}

// ClassifyBatch classifies each message in order. Blank lines are skipped.
// It stops at the first error or when ctx is cancelled.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		r, err := s.Classify(ctx, text)
		if err != nil {
			return results, errors.WithMessagef(err, "message %d", i+1)
		}
		results = append(results, r)
	}
	return results, nil
}

// ResetCache drops every cached prediction.
func (s *Service) ResetCache(ctx context.Context) error {
	return s.cache.Reset(ctx)
}

// Close releases the cache.
func (s *Service) Close() error {
	return s.cache.Close()
}

// Format renders a result the way the CLI prints it.
func Format(r Result) string {
	verdict := "HAM"
	if r.Label == dataset.Spam {
		verdict = "SPAM"
	}
	return fmt.Sprintf("%s (spam %.2f%%, ham %.2f%%)", verdict, r.SpamPct, r.HamPct)
}
