package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"
)

// Profiler tracks durations of named operations, such as training stages or
// individual predictions
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
	order []string
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer represents a timing operation
type Timer struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// Start begins timing an operation
func (p *Profiler) Start(name string) *Timer {
	return &Timer{
		profiler: p,
		name:     name,
		start:    time.Now(),
	}
}

// Stop completes the timing and records the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	t.profiler.Record(t.name, duration)
	return duration
}

// Record manually records a timing
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	if _, seen := p.times[name]; !seen {
		p.order = append(p.order, name)
	}
	p.times[name] = append(p.times[name], duration)
	p.mu.Unlock()
}

// Track runs fn under a timer named name and returns its error
func (p *Profiler) Track(name string, fn func() error) error {
	timer := p.Start(name)
	defer timer.Stop()
	return fn()
}

// Stats contains timing statistics
type Stats struct {
	Name    string
	Count   int
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Median  time.Duration
	P95     time.Duration
	P99     time.Duration
}

// GetStats returns timing statistics for an operation
func (p *Profiler) GetStats(name string) *Stats {
	p.mu.RLock()
	times := append([]time.Duration(nil), p.times[name]...)
	p.mu.RUnlock()

	if len(times) == 0 {
		return &Stats{Name: name}
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	// stat.Quantile wants sorted float64 samples
	samples := make([]float64, len(times))
	var total time.Duration
	for i, d := range times {
		total += d
		samples[i] = float64(d)
	}

	quantile := func(q float64) time.Duration {
		return time.Duration(stat.Quantile(q, stat.Empirical, samples, nil))
	}

	return &Stats{
		Name:    name,
		Count:   len(times),
		Total:   total,
		Average: total / time.Duration(len(times)),
		Min:     times[0],
		Max:     times[len(times)-1],
		Median:  quantile(0.5),
		P95:     quantile(0.95),
		P99:     quantile(0.99),
	}
}

// Total returns the summed duration recorded under name
func (p *Profiler) Total(name string) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total time.Duration
	for _, d := range p.times[name] {
		total += d
	}
	return total
}

// GetAllStats returns statistics for all tracked operations in the order
// they were first recorded
func (p *Profiler) GetAllStats() []*Stats {
	p.mu.RLock()
	names := append([]string(nil), p.order...)
	p.mu.RUnlock()

	stats := make([]*Stats, 0, len(names))
	for _, name := range names {
		stats = append(stats, p.GetStats(name))
	}
	return stats
}

// Reset clears all timing data
func (p *Profiler) Reset() {
	p.mu.Lock()
	p.times = make(map[string][]time.Duration)
	p.order = nil
	p.mu.Unlock()
}

// Render writes a latency table for every tracked operation
func (p *Profiler) Render(w io.Writer) {
	stats := p.GetAllStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing data available")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Operation", "Count", "Total", "Avg", "Min", "Median", "Max", "P95", "P99"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range stats {
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%d", s.Count),
			FormatDuration(s.Total),
			FormatDuration(s.Average),
			FormatDuration(s.Min),
			FormatDuration(s.Median),
			FormatDuration(s.Max),
			FormatDuration(s.P95),
			FormatDuration(s.P99),
		})
	}
	table.Render()
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1e3)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
