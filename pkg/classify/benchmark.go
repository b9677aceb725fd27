package classify

import (
	"context"
	"sync"
	"time"

	"github.com/zpam/sms-filter/pkg/dataset"
)

// BenchmarkResult contains throughput and agreement figures of a benchmark.
// Per-message latency goes to the service profiler.
type BenchmarkResult struct {
	TotalMessages     int
	TotalTime         time.Duration
	MessagesPerSecond float64

	SpamDetected int
	HamDetected  int
	Correct      int
	Accuracy     float64

	Errors    int
	ErrorRate float64
}

// Benchmark classifies every example runs times with up to concurrent
// workers and compares each label against the example's label.
func (s *Service) Benchmark(ctx context.Context, examples []dataset.Example, runs, concurrent int) (*BenchmarkResult, error) {
	if runs < 1 {
		runs = 1
	}
	if concurrent < 1 {
		concurrent = 1
	}

	result := &BenchmarkResult{TotalMessages: len(examples) * runs}

	var mu sync.Mutex
	var wg sync.WaitGroup

	// Channel to control concurrency
	semaphore := make(chan struct{}, concurrent)

	start := time.Now()
	for run := 0; run < runs; run++ {
		for _, ex := range examples {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return nil, err
			}

			semaphore <- struct{}{}
			wg.Add(1)
			go func(ex dataset.Example) {
				defer wg.Done()
				defer func() { <-semaphore }()

				r, err := s.Classify(ctx, ex.Text)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Errors++
					return
				}
				if r.IsSpam() {
					result.SpamDetected++
				} else {
					result.HamDetected++
				}
				if r.Label == ex.Label {
					result.Correct++
				}
			}(ex)
		}
	}
	wg.Wait()
	result.TotalTime = time.Since(start)

	if result.TotalMessages > 0 {
		result.Accuracy = float64(result.Correct) / float64(result.TotalMessages)
		result.ErrorRate = float64(result.Errors) / float64(result.TotalMessages)
	}
	if secs := result.TotalTime.Seconds(); secs > 0 {
		result.MessagesPerSecond = float64(result.TotalMessages) / secs
	}
	return result, nil
}
