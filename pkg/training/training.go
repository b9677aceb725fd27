// Package training runs the train → evaluate → save pipeline and reports
// each stage.
package training

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/evaluation"
	"github.com/zpam/sms-filter/pkg/learning"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
)

// Stage names, also used as profiler keys.
const (
	StageLoad     = "load dataset"
	StageSplit    = "split"
	StageFit      = "fit"
	StageEvaluate = "evaluate"
	StageSave     = "save"
)

// topTermCount is how many indicative terms stage 3 prints per class.
const topTermCount = 5

// Options configures a training run.
type Options struct {
	DatasetPath  string
	ModelPath    string
	TestFraction float64
	Seed         uint64
	Tokenizer    learning.Tokenizer
	Alpha        float64

	// Out receives the human-readable report; nil discards it.
	Out    io.Writer
	Logger *zap.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DatasetPath:  dataset.DefaultPath,
		ModelPath:    model.DefaultPath,
		TestFraction: dataset.DefaultTestFraction,
		Seed:         dataset.DefaultSeed,
		Tokenizer:    learning.NewTokenizer(learning.DefaultMinTokenLength),
		Alpha:        learning.DefaultAlpha,
	}
}

// OptionsFromConfig maps the config file sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DatasetPath:  cfg.Dataset.Path,
		ModelPath:    cfg.Model.Path,
		TestFraction: cfg.Split.TestFraction,
		Seed:         cfg.Split.Seed,
		Tokenizer:    cfg.Tokenizer(),
		Alpha:        cfg.Classifier.Alpha,
	}
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Model       *model.Model
	Counts      dataset.Counts
	TrainCounts dataset.Counts
	TestCounts  dataset.Counts
	Report      *evaluation.Report
	ModelPath   string
	ModelSize   int64
	Timings     *profiler.Profiler
}

// Run loads the dataset, splits it, fits the model, evaluates it on the
// held-out part and saves the artifact. Nothing is written when any earlier
// stage fails.
func Run(opts Options) (*Result, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := logging.OrNop(opts.Logger)
	timings := profiler.NewProfiler()
	started := time.Now()

	res := &Result{RunID: uuid.NewString(), ModelPath: opts.ModelPath, Timings: timings}
	log = log.With(zap.String("run_id", res.RunID))

	fmt.Fprintf(out, "🧠 SMS Spam Classifier Training\n")
	fmt.Fprintf(out, "═══════════════════════════════════════\n\n")

	// Stage 1: dataset
	header(out, 1, "Loading dataset")
	var ds *dataset.Dataset
	err := timings.Track(StageLoad, func() (err error) {
		ds, err = dataset.Load(opts.DatasetPath)
		return err
	})
	if err != nil {
		log.Error("dataset load failed", zap.String("path", opts.DatasetPath), zap.Error(err))
		return nil, err
	}
	res.Counts = ds.Counts()
	fmt.Fprintf(out, "📁 Source: %s\n", opts.DatasetPath)
	fmt.Fprintf(out, "📊 Messages: %d (spam %d, ham %d)\n\n", res.Counts.Total(), res.Counts.Spam, res.Counts.Ham)
	log.Info("dataset loaded",
		zap.Int("total", res.Counts.Total()),
		zap.Int("spam", res.Counts.Spam),
		zap.Int("ham", res.Counts.Ham))

	// Stage 2: split
	header(out, 2, "Splitting train/test")
	var split *dataset.Split
	err = timings.Track(StageSplit, func() (err error) {
		split, err = dataset.StratifiedSplit(ds.Examples, opts.TestFraction, opts.Seed)
		return err
	})
	if err != nil {
		log.Error("split failed", zap.Error(err))
		return nil, err
	}
	res.TrainCounts = dataset.CountLabels(split.Train)
	res.TestCounts = dataset.CountLabels(split.Test)
	fmt.Fprintf(out, "🔀 Train: %d messages (spam %d, ham %d)\n",
		res.TrainCounts.Total(), res.TrainCounts.Spam, res.TrainCounts.Ham)
	fmt.Fprintf(out, "🔀 Test:  %d messages (spam %d, ham %d)\n",
		res.TestCounts.Total(), res.TestCounts.Spam, res.TestCounts.Ham)
	fmt.Fprintf(out, "🎲 Stratified, test fraction %.2f, seed %d\n\n", opts.TestFraction, opts.Seed)

	// Stage 3: fit
	header(out, 3, "Training model")
	var m *model.Model
	err = timings.Track(StageFit, func() (err error) {
		m, err = model.Fit(split.Train, opts.Tokenizer, opts.Alpha)
		return err
	})
	if err != nil {
		log.Error("fit failed", zap.Error(err))
		return nil, err
	}
	fmt.Fprintf(out, "🔤 TF-IDF features: %d terms (min token length %d)\n",
		m.VocabularySize(), opts.Tokenizer.MinTokenLength)
	fmt.Fprintf(out, "📐 Multinomial Naive Bayes, alpha %.2f\n", m.Alpha())
	for _, label := range []dataset.Label{dataset.Spam, dataset.Ham} {
		terms := lo.Map(m.TopTerms(label, topTermCount), func(tw model.TermWeight, _ int) string { return tw.Term })
		fmt.Fprintf(out, "🔝 Top %s terms: %s\n", label, strings.Join(terms, ", "))
	}
	fmt.Fprintln(out)
	log.Info("model fitted", zap.Int("vocabulary", m.VocabularySize()), zap.Float64("alpha", m.Alpha()))

	// Stage 4: evaluate
	header(out, 4, "Evaluating on held-out messages")
	var report *evaluation.Report
	err = timings.Track(StageEvaluate, func() (err error) {
		report, err = evaluation.Evaluate(m, split.Test)
		return err
	})
	if err != nil {
		log.Error("evaluation failed", zap.Error(err))
		return nil, err
	}
	res.Report = report
	report.Render(out)
	fmt.Fprintln(out)
	log.Info("model evaluated", zap.Float64("accuracy", report.Accuracy), zap.Int("test_size", report.Total))

	// Stage 5: save
	header(out, 5, "Saving model")
	m = m.WithMetadata(model.Metadata{
		RunID:         res.RunID,
		CreatedAt:     time.Now().UTC(),
		DatasetSource: opts.DatasetPath,
		TrainCounts:   res.TrainCounts,
		TestCounts:    res.TestCounts,
		TestFraction:  opts.TestFraction,
		SplitSeed:     opts.Seed,
		TestAccuracy:  report.Accuracy,
	})
	err = timings.Track(StageSave, func() (err error) {
		res.ModelSize, err = model.Save(opts.ModelPath, m)
		return err
	})
	if err != nil {
		log.Error("save failed", zap.String("path", opts.ModelPath), zap.Error(err))
		return nil, err
	}
	res.Model = m
	fmt.Fprintf(out, "💾 Saved to: %s (%s)\n\n", opts.ModelPath, formatSize(res.ModelSize))
	log.Info("model saved", zap.String("path", opts.ModelPath), zap.Int64("bytes", res.ModelSize))

	// Stage 6: summary
	header(out, 6, "Summary")
	fmt.Fprintf(out, "🎉 %s\n", color.New(color.FgGreen, color.OpBold).Render("Training complete"))
	fmt.Fprintf(out, "🆔 Run: %s\n", res.RunID)
	fmt.Fprintf(out, "🎯 Test accuracy: %.2f%%\n", report.Accuracy*100)
	for _, stage := range []string{StageLoad, StageSplit, StageFit, StageEvaluate, StageSave} {
		fmt.Fprintf(out, "⏱️  %-14s %s\n", stage, profiler.FormatDuration(timings.Total(stage)))
	}
	fmt.Fprintf(out, "⏱️  %-14s %s\n", "total", profiler.FormatDuration(time.Since(started)))
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  zsms predict \"your message here\"   classify a message\n")
	fmt.Fprintf(out, "  zsms check                         run the known-message smoke test\n")

	return res, nil
}

func header(w io.Writer, n int, title string) {
	fmt.Fprintf(w, "%s\n", color.New(color.FgCyan, color.OpBold).Render(fmt.Sprintf("[%d/6] %s", n, title)))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// Validate checks options before any stage runs.
func (o Options) Validate() error {
	if o.DatasetPath == "" {
		return errors.New("dataset path is required")
	}
	if o.ModelPath == "" {
		return errors.New("model path is required")
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		return errors.Errorf("test fraction %v must be between 0 and 1", o.TestFraction)
	}
	if o.Tokenizer.MinTokenLength < 1 {
		return errors.Errorf("min token length %d must be at least 1", o.Tokenizer.MinTokenLength)
	}
	if o.Alpha <= 0 {
		return errors.Errorf("alpha %v must be positive", o.Alpha)
	}
	return nil
}
