package classify

import (
	"context"

	"github.com/zpam/sms-filter/pkg/dataset"
)

// MinCheckAccuracy is the share of known messages per class that must be
// labelled correctly for a check to pass.
const MinCheckAccuracy = 0.6

// KnownMessages are hand-picked messages with an unambiguous label.
var KnownMessages = map[dataset.Label][]string{
	dataset.Spam: {
		"WINNER!! You have won a £1000 prize! Call 09061701461 now to claim.",
		"Free entry in 2 a wkly comp to win FA Cup final tkts. Text FA to 87121",
		"URGENT! Your Mobile No. was awarded £2000 Bonus Prize. Call 09064019788",
		"Congratulations! You've been selected to receive a free iPhone. Click here now!",
		"XXXMobileMovieClub: To use your credit, click the WAP link in the next txt",
	},
	dataset.Ham: {
		"Hi! Are you free for lunch today? Let me know what time works for you.",
		"Just wanted to check if you're still coming to the meeting at 3pm",
		"Thanks for your help today. Really appreciate it!",
		"Can you pick up some milk on your way home?",
		"I'm running a bit late, will be there in 10 minutes",
	},
}

// CheckCase is one known message and how it was classified.
type CheckCase struct {
	Expected dataset.Label
	Result   Result
}

// Correct reports whether the message got its expected label.
func (c CheckCase) Correct() bool {
	return c.Result.Label == c.Expected
}

// CheckReport is the outcome of Check.
type CheckReport struct {
	Cases   []CheckCase
	Correct map[dataset.Label]int
	Totals  map[dataset.Label]int
}

// Accuracy returns the share of correctly labelled messages of label.
func (r *CheckReport) Accuracy(label dataset.Label) float64 {
	if r.Totals[label] == 0 {
		return 0
	}
	return float64(r.Correct[label]) / float64(r.Totals[label])
}

// Passed reports whether every class reached MinCheckAccuracy.
func (r *CheckReport) Passed() bool {
	for label, total := range r.Totals {
		if float64(r.Correct[label]) < float64(total)*MinCheckAccuracy {
			return false
		}
	}
	return true
}

// Check classifies messages grouped by expected label, spam first then ham.
func (s *Service) Check(ctx context.Context, messages map[dataset.Label][]string) (*CheckReport, error) {
	report := &CheckReport{
		Correct: make(map[dataset.Label]int),
		Totals:  make(map[dataset.Label]int),
	}
	for _, label := range []dataset.Label{dataset.Spam, dataset.Ham} {
		for _, text := range messages[label] {
			r, err := s.Classify(ctx, text)
			if err != nil {
				return nil, err
			}
			c := CheckCase{Expected: label, Result: r}
			report.Cases = append(report.Cases, c)
			report.Totals[label]++
			if c.Correct() {
				report.Correct[label]++
			}
		}
	}
	return report, nil
}
