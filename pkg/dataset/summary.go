package dataset

import (
	"sort"
	"unicode/utf8"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// ClassSummary describes the messages of one class. Lengths are in runes.
type ClassSummary struct {
	Label        Label
	Count        int
	Share        float64
	MeanLength   float64
	MedianLength float64
	MaxLength    int
}

// Summary is the overview shown next to the classifier.
type Summary struct {
	Total   int
	Classes []ClassSummary
}

// Summarize computes per-class counts, shares and message length statistics,
// classes ordered like Labels.
func Summarize(examples []Example) Summary {
	s := Summary{Total: len(examples)}
	for _, label := range Labels {
		lengths := lo.FilterMap(examples, func(ex Example, _ int) (float64, bool) {
			return float64(utf8.RuneCountInString(ex.Text)), ex.Label == label
		})

		cs := ClassSummary{Label: label, Count: len(lengths)}
		if len(lengths) > 0 {
			sort.Float64s(lengths)
			cs.Share = float64(len(lengths)) / float64(len(examples))
			cs.MeanLength = stat.Mean(lengths, nil)
			cs.MedianLength = stat.Quantile(0.5, stat.Empirical, lengths, nil)
			cs.MaxLength = int(lengths[len(lengths)-1])
		}
		s.Classes = append(s.Classes, cs)
	}
	return s
}
