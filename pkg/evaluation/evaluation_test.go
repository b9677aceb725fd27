package evaluation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/zpam/sms-filter/pkg/dataset"
)

// keywordPredictor calls anything containing "win" spam.
type keywordPredictor struct {
	calls int
}

func (k *keywordPredictor) PredictLabel(text string) (dataset.Label, error) {
	k.calls++
	if strings.Contains(strings.ToLower(text), "win") {
		return dataset.Spam, nil
	}
	return dataset.Ham, nil
}

type failingPredictor struct{}

func (failingPredictor) PredictLabel(string) (dataset.Label, error) {
	return "", errors.New("boom")
}

func TestEvaluate(t *testing.T) {
	examples := []dataset.Example{
		{Text: "win cash", Label: dataset.Spam},
		{Text: "win a prize", Label: dataset.Spam},
		{Text: "free ringtones", Label: dataset.Spam}, // missed spam
		{Text: "lunch?", Label: dataset.Ham},
		{Text: "did you win the match", Label: dataset.Ham}, // false positive
		{Text: "see you", Label: dataset.Ham},
		{Text: "call me", Label: dataset.Ham},
	}

	p := &keywordPredictor{}
	r, err := Evaluate(p, examples)
	require.NoError(t, err)
	require.Equal(t, len(examples), p.calls)

	require.Equal(t, 7, r.Total)
	require.Equal(t, 5, r.Correct)
	require.InDelta(t, 5.0/7.0, r.Accuracy, 1e-12)
	require.Equal(t, [2][2]int{{3, 1}, {1, 2}}, r.Confusion)

	ham := r.Class(dataset.Ham)
	require.InDelta(t, 3.0/4.0, ham.Precision, 1e-12)
	require.InDelta(t, 3.0/4.0, ham.Recall, 1e-12)
	require.InDelta(t, 3.0/4.0, ham.F1, 1e-12)
	require.Equal(t, 4, ham.Support)

	spam := r.Class(dataset.Spam)
	require.InDelta(t, 2.0/3.0, spam.Precision, 1e-12)
	require.InDelta(t, 2.0/3.0, spam.Recall, 1e-12)
	require.Equal(t, 3, spam.Support)

	require.InDelta(t, (0.75+2.0/3.0)/2, r.MacroAvg.F1, 1e-12)
	require.InDelta(t, (0.75*4+2.0/3.0*3)/7, r.WeightedAvg.Recall, 1e-12)
}

func TestEvaluateZeroDenominators(t *testing.T) {
	examples := []dataset.Example{
		{Text: "hello", Label: dataset.Ham},
		{Text: "free stuff", Label: dataset.Spam},
	}
	r, err := Evaluate(&keywordPredictor{}, examples)
	require.NoError(t, err)

	spam := r.Class(dataset.Spam)
	require.Zero(t, spam.Precision)
	require.Zero(t, spam.Recall)
	require.Zero(t, spam.F1)
}

func TestEvaluateErrors(t *testing.T) {
	_, err := Evaluate(&keywordPredictor{}, nil)
	require.Error(t, err)

	_, err = Evaluate(failingPredictor{}, []dataset.Example{{Text: "x", Label: dataset.Ham}})
	require.ErrorContains(t, err, "boom")
}

func TestRender(t *testing.T) {
	r, err := Evaluate(&keywordPredictor{}, []dataset.Example{
		{Text: "win", Label: dataset.Spam},
		{Text: "hi", Label: dataset.Ham},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()
	require.Contains(t, out, "Accuracy: 1.0000 (100.00%)")
	require.Contains(t, out, "Actual Ham")
	require.Contains(t, out, "weighted avg")
}
