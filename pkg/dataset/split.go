package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/apperr"
)

const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
)

// Split is a stratified train/test partition of a dataset.
type Split struct {
	Train []Example
	Test  []Example
}

// StratifiedSplit holds out testFraction of every class, chosen by a PRNG
// seeded with seed. Both halves keep the original dataset order.
func StratifiedSplit(examples []Example, testFraction float64, seed uint64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.Errorf("test fraction must be in (0,1), got %v", testFraction)
	}

	byClass := make(map[Label][]int, len(Labels))
	for i, ex := range examples {
		byClass[ex.Label] = append(byClass[ex.Label], i)
	}
	for _, label := range Labels {
		if n := len(byClass[label]); n < 2 {
			return nil, errors.Wrapf(apperr.ErrInsufficientData,
				"class %q has %d example(s), need at least 2 to stratify", label, n)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	held := make(map[int]bool)

	// Labels order keeps the PRNG stream reproducible.
	for _, label := range Labels {
		idx := byClass[label]
		n := len(idx)
		nTest := int(math.Round(float64(n) * testFraction))
		nTest = max(1, min(nTest, n-1))

		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, i := range shuffled[:nTest] {
			held[i] = true
		}
	}

	split := &Split{
		Train: make([]Example, 0, len(examples)-len(held)),
		Test:  make([]Example, 0, len(held)),
	}
	for i, ex := range examples {
		if held[i] {
			split.Test = append(split.Test, ex)
		} else {
			split.Train = append(split.Train, ex)
		}
	}

	return split, nil
}
