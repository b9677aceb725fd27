package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/classify"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/profiler"
)

var (
	benchmarkModel      string
	benchmarkDataset    string
	benchmarkRuns       int
	benchmarkConcurrent int
	benchmarkUseCache   bool
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure prediction latency over the dataset messages",
	Long: `Classify every dataset message several times and report throughput,
agreement with the dataset labels and per-prediction latency statistics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("model") {
			cfg.Model.Path = benchmarkModel
		}
		if flags.Changed("dataset") {
			cfg.Dataset.Path = benchmarkDataset
		}
		if !benchmarkUseCache {
			cfg.Cache.Backend = "none"
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ds, err := dataset.Load(cfg.Dataset.Path)
		if err != nil {
			return err
		}

		timings := profiler.NewProfiler()
		svc, err := openService(cfg, cfg.Model.Path, logger, classify.WithProfiler(timings))
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🚀 ZSMS Prediction Benchmark\n")
		fmt.Fprintf(out, "📁 Dataset: %s (%d messages)\n", cfg.Dataset.Path, ds.Len())
		fmt.Fprintf(out, "💾 Model: %s\n", cfg.Model.Path)
		fmt.Fprintf(out, "🔄 Benchmark runs: %d\n", benchmarkRuns)
		fmt.Fprintf(out, "⚡ Concurrent workers: %d\n", benchmarkConcurrent)
		fmt.Fprintf(out, "🗄️  Cache: %s\n\n", cacheLabel(cfg.Cache.Backend))

		res, err := svc.Benchmark(cmd.Context(), ds.Examples, benchmarkRuns, benchmarkConcurrent)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "📊 Results\n")
		fmt.Fprintf(out, "═══════════════════════════════════════\n")
		fmt.Fprintf(out, "Messages classified: %d\n", res.TotalMessages)
		fmt.Fprintf(out, "Total time:          %s\n", profiler.FormatDuration(res.TotalTime))
		fmt.Fprintf(out, "Throughput:          %.0f messages/second\n", res.MessagesPerSecond)
		fmt.Fprintf(out, "Spam / Ham:          %d / %d\n", res.SpamDetected, res.HamDetected)
		fmt.Fprintf(out, "Label agreement:     %.2f%%\n", res.Accuracy*100)
		fmt.Fprintf(out, "Errors:              %d (%.2f%%)\n\n", res.Errors, res.ErrorRate*100)

		timings.Render(out)
		return nil
	},
}

func cacheLabel(backend string) string {
	if backend == "none" {
		return "disabled"
	}
	return backend
}

func init() {
	benchmarkCmd.Flags().StringVarP(&benchmarkModel, "model", "m", "", "Model artifact path (overrides config)")
	benchmarkCmd.Flags().StringVarP(&benchmarkDataset, "dataset", "d", "", "Messages to classify (overrides config)")
	benchmarkCmd.Flags().IntVarP(&benchmarkRuns, "runs", "r", 3, "Number of passes over the dataset")
	benchmarkCmd.Flags().IntVar(&benchmarkConcurrent, "concurrent", runtime.NumCPU(), "Concurrent workers")
	benchmarkCmd.Flags().BoolVar(&benchmarkUseCache, "cache", false, "Use the configured prediction cache")
}
