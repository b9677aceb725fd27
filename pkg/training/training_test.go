package training

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zpam/sms-filter/pkg/apperr"
	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/model"
)

var spamMessages = []string{
	"WINNER!! You have won a FREE prize, call now to claim",
	"FREE entry to win cash, text WIN to 80086 now",
	"Congratulations you won a 1000 cash prize, call now",
	"URGENT! Claim your FREE mobile phone, call now",
	"You have been selected for a cash award, claim now",
	"Win a FREE holiday, text CLAIM to 87121",
	"FREE ringtones, reply WIN to receive now",
	"Claim your cash prize today, call the free number now",
	"You are a winner! Call now to claim your reward",
	"Text WIN now for a chance to win free cash",
}

var hamMessages = []string{
	"Are you coming for lunch today?",
	"See you at the office tomorrow morning",
	"Can you pick up milk on the way home",
	"Are we still meeting for dinner tonight",
	"Thanks for your help today, see you soon",
	"I will be home late, keep dinner warm",
	"Did you finish the report for the meeting",
	"Let me know when you get home safe",
	"Mum says the party is on Saturday afternoon",
	"Sorry I missed your call, talk later",
}

func writeDataset(t *testing.T, dir string, spam, ham []string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < len(spam) || i < len(ham); i++ {
		if i < len(ham) {
			b.WriteString("ham,\"" + ham[i] + "\"\n")
		}
		if i < len(spam) {
			b.WriteString("spam,\"" + spam[i] + "\"\n")
		}
	}
	path := filepath.Join(dir, "sms.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testOptions(t *testing.T, datasetPath string) Options {
	opts := DefaultOptions()
	opts.DatasetPath = datasetPath
	opts.ModelPath = filepath.Join(t.TempDir(), "out", "model.zsms")
	return opts
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(t, writeDataset(t, dir, spamMessages, hamMessages))
	var out bytes.Buffer
	opts.Out = &out

	res, err := Run(opts)
	require.NoError(t, err)

	require.Equal(t, dataset.Counts{Ham: 10, Spam: 10}, res.Counts)
	require.Equal(t, dataset.Counts{Ham: 8, Spam: 8}, res.TrainCounts)
	require.Equal(t, dataset.Counts{Ham: 2, Spam: 2}, res.TestCounts)
	require.Equal(t, 4, res.Report.Total)
	require.Greater(t, res.ModelSize, int64(0))
	require.NotEmpty(t, res.RunID)

	for _, stage := range []string{StageLoad, StageSplit, StageFit, StageEvaluate, StageSave} {
		require.Equal(t, 1, res.Timings.GetStats(stage).Count, stage)
	}

	report := out.String()
	for _, want := range []string{
		"Loading dataset", "Splitting train/test", "Training model",
		"Evaluating on held-out messages", "Saving model", "Summary",
		"Messages: 20 (spam 10, ham 10)", "Confusion Matrix", "Classification Report",
		opts.ModelPath, "zsms predict",
		"Top spam terms: ", "Top ham terms: ",
		"⏱️  load dataset", "⏱️  save",
	} {
		require.Contains(t, report, want)
	}

	top := res.Model.TopTerms(dataset.Spam, 1)
	require.Len(t, top, 1)
	require.Contains(t, report, "Top spam terms: "+top[0].Term)

	loaded, err := model.Load(opts.ModelPath)
	require.NoError(t, err)
	meta := loaded.Metadata()
	require.Equal(t, res.RunID, meta.RunID)
	require.Equal(t, res.TrainCounts, meta.TrainCounts)
	require.Equal(t, res.Report.Accuracy, meta.TestAccuracy)
	require.Equal(t, uint64(dataset.DefaultSeed), meta.SplitSeed)

	p, err := loaded.Predict("FREE cash prize, call now to claim")
	require.NoError(t, err)
	require.Equal(t, dataset.Spam, p.Label)
}

func TestRunDeterministic(t *testing.T) {
	path := writeDataset(t, t.TempDir(), spamMessages, hamMessages)

	first, err := Run(testOptions(t, path))
	require.NoError(t, err)
	second, err := Run(testOptions(t, path))
	require.NoError(t, err)

	require.Equal(t, first.Model.VocabularySize(), second.Model.VocabularySize())
	require.Equal(t, first.Report.Accuracy, second.Report.Accuracy)
	require.Equal(t, first.Report.Confusion, second.Report.Confusion)
	require.NotEqual(t, first.RunID, second.RunID)

	for _, text := range append(spamMessages, hamMessages...) {
		a, err := first.Model.Predict(text)
		require.NoError(t, err)
		b, err := second.Model.Predict(text)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	singleDir := t.TempDir()
	singlePath := writeDataset(t, singleDir, nil, hamMessages)

	tests := []struct {
		name    string
		dataset string
		want    error
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), apperr.ErrDatasetNotFound},
		{"empty file", emptyPath, apperr.ErrDatasetMalformed},
		{"single class", singlePath, apperr.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, tt.dataset)
			_, err := Run(opts)
			require.ErrorIs(t, err, tt.want)

			_, statErr := os.Stat(opts.ModelPath)
			require.True(t, os.IsNotExist(statErr), "no artifact should be written")
		})
	}
}

func TestRunLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	opts := testOptions(t, writeDataset(t, t.TempDir(), spamMessages, hamMessages))
	opts.Logger = zap.New(core)

	res, err := Run(opts)
	require.NoError(t, err)

	saved := logs.FilterMessage("model saved").All()
	require.Len(t, saved, 1)
	require.Equal(t, res.RunID, saved[0].ContextMap()["run_id"])
	require.Equal(t, 1, logs.FilterMessage("dataset loaded").Len())
}

func TestOptionsValidate(t *testing.T) {
	base := DefaultOptions()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"no dataset", func(o *Options) { o.DatasetPath = "" }},
		{"no model", func(o *Options) { o.ModelPath = "" }},
		{"zero fraction", func(o *Options) { o.TestFraction = 0 }},
		{"whole fraction", func(o *Options) { o.TestFraction = 1 }},
		{"zero alpha", func(o *Options) { o.Alpha = 0 }},
		{"zero token length", func(o *Options) { o.Tokenizer.MinTokenLength = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			require.Error(t, opts.Validate())
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Path = "data.csv"
	cfg.Split.Seed = 7
	cfg.Features.MinTokenLength = 3

	opts := OptionsFromConfig(cfg)
	require.Equal(t, "data.csv", opts.DatasetPath)
	require.Equal(t, uint64(7), opts.Seed)
	require.Equal(t, 3, opts.Tokenizer.MinTokenLength)
	require.Equal(t, cfg.Classifier.Alpha, opts.Alpha)
}
