// Package evaluation scores a fitted classifier against held-out examples.
package evaluation

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/dataset"
)

// Predictor is anything that labels a message.
type Predictor interface {
	PredictLabel(text string) (dataset.Label, error)
}

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Label     dataset.Label `json:"label"`
	Precision float64       `json:"precision"`
	Recall    float64       `json:"recall"`
	F1        float64       `json:"f1"`
	Support   int           `json:"support"`
}

// Report is the outcome of evaluating a predictor. Confusion rows are the
// actual class and columns the predicted class, both ordered ham, spam.
type Report struct {
	Total       int            `json:"total"`
	Correct     int            `json:"correct"`
	Accuracy    float64        `json:"accuracy"`
	Confusion   [2][2]int      `json:"confusion_matrix"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
}

// Evaluate labels every example with p and compares against the truth.
// It never mutates p.
func Evaluate(p Predictor, examples []dataset.Example) (*Report, error) {
	if len(examples) == 0 {
		return nil, errors.New("no examples to evaluate")
	}

	r := &Report{Total: len(examples)}
	for i, ex := range examples {
		actual := ex.Label.Index()
		if actual < 0 {
			return nil, errors.Errorf("example %d has unknown label %q", i, ex.Label)
		}
		label, err := p.PredictLabel(ex.Text)
		if err != nil {
			return nil, errors.WithMessagef(err, "predict example %d", i)
		}
		r.Confusion[actual][label.Index()]++
		if label == ex.Label {
			r.Correct++
		}
	}
	r.Accuracy = float64(r.Correct) / float64(r.Total)
	r.computeClassMetrics()
	return r, nil
}

func (r *Report) computeClassMetrics() {
	r.Classes = make([]ClassMetrics, len(dataset.Labels))
	for c, label := range dataset.Labels {
		tp := r.Confusion[c][c]
		var predicted, actual int
		for k := range dataset.Labels {
			predicted += r.Confusion[k][c]
			actual += r.Confusion[c][k]
		}

		m := ClassMetrics{
			Label:     label,
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, actual),
			Support:   actual,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[c] = m
	}

	r.MacroAvg = ClassMetrics{Label: "macro avg", Support: r.Total}
	r.WeightedAvg = ClassMetrics{Label: "weighted avg", Support: r.Total}
	n := float64(len(r.Classes))
	for _, m := range r.Classes {
		r.MacroAvg.Precision += m.Precision / n
		r.MacroAvg.Recall += m.Recall / n
		r.MacroAvg.F1 += m.F1 / n

		w := float64(m.Support) / float64(r.Total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
}

// Class returns the metrics for label.
func (r *Report) Class(label dataset.Label) ClassMetrics {
	return r.Classes[label.Index()]
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Render writes the accuracy, confusion matrix and classification report.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Accuracy: %.4f (%.2f%%)\n\n", r.Accuracy, r.Accuracy*100)

	fmt.Fprintf(w, "Confusion Matrix (rows = actual, columns = predicted):\n")
	cm := tablewriter.NewWriter(w)
	cm.SetHeader([]string{"", "Pred Ham", "Pred Spam"})
	cm.SetAlignment(tablewriter.ALIGN_RIGHT)
	cm.Append([]string{"Actual Ham", fmt.Sprint(r.Confusion[0][0]), fmt.Sprint(r.Confusion[0][1])})
	cm.Append([]string{"Actual Spam", fmt.Sprint(r.Confusion[1][0]), fmt.Sprint(r.Confusion[1][1])})
	cm.Render()

	fmt.Fprintf(w, "\nClassification Report:\n")
	cr := tablewriter.NewWriter(w)
	cr.SetHeader([]string{"", "Precision", "Recall", "F1-Score", "Support"})
	cr.SetAlignment(tablewriter.ALIGN_RIGHT)
	rows := append(append([]ClassMetrics{}, r.Classes...), r.MacroAvg, r.WeightedAvg)
	for _, m := range rows {
		cr.Append([]string{
			string(m.Label),
			fmt.Sprintf("%.2f", m.Precision),
			fmt.Sprintf("%.2f", m.Recall),
			fmt.Sprintf("%.2f", m.F1),
			fmt.Sprint(m.Support),
		})
	}
	cr.Render()
}
