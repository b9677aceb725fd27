package learning

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/zpam/sms-filter/pkg/apperr"
)

// DefaultAlpha is add-one (Laplace) smoothing.
const DefaultAlpha = 1.0

// MultinomialNB is a multinomial naive Bayes classifier over non-negative
// feature vectors. Classes are identified by index; on an exact score tie
// the lowest index wins.
type MultinomialNB struct {
	alpha          float64
	classCount     []float64
	classLogPrior  []float64
	featureLogProb [][]float64
}

// NBState is the serializable form of a fitted MultinomialNB.
type NBState struct {
	Alpha          float64     `json:"alpha"`
	ClassCount     []float64   `json:"class_count"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// NewMultinomialNB creates an unfitted classifier with additive smoothing alpha.
func NewMultinomialNB(alpha float64) *MultinomialNB {
	return &MultinomialNB{alpha: alpha}
}

// Fit estimates log priors from label frequencies and smoothed per-class
// term log-likelihoods from summed feature weights.
func (nb *MultinomialNB) Fit(X []SparseVector, y []int, numClasses, numFeatures int) error {
	if nb.alpha <= 0 || math.IsNaN(nb.alpha) || math.IsInf(nb.alpha, 0) {
		return errors.Errorf("smoothing alpha must be positive, got %v", nb.alpha)
	}
	if len(X) != len(y) {
		return errors.Errorf("got %d vectors for %d labels", len(X), len(y))
	}
	if numClasses < 2 || numFeatures < 1 {
		return errors.Errorf("need at least 2 classes and 1 feature, got %d and %d", numClasses, numFeatures)
	}

	classCount := make([]float64, numClasses)
	featureCount := make([][]float64, numClasses)
	for c := range featureCount {
		featureCount[c] = make([]float64, numFeatures)
	}

	for i, vec := range X {
		c := y[i]
		if c < 0 || c >= numClasses {
			return errors.Errorf("label %d out of range at row %d", c, i)
		}
		classCount[c]++
		for k, idx := range vec.Indices {
			if idx < 0 || idx >= numFeatures {
				return errors.Errorf("feature index %d out of range at row %d", idx, i)
			}
			featureCount[c][idx] += vec.Values[k]
		}
	}

	for c, n := range classCount {
		if n == 0 {
			return errors.Wrapf(apperr.ErrInsufficientData, "class %d has no training examples", c)
		}
	}

	total := floats.Sum(classCount)
	classLogPrior := make([]float64, numClasses)
	featureLogProb := make([][]float64, numClasses)
	for c := range featureCount {
		classLogPrior[c] = math.Log(classCount[c]) - math.Log(total)

		smoothed := featureCount[c]
		floats.AddConst(nb.alpha, smoothed)
		logTotal := math.Log(floats.Sum(smoothed))

		row := make([]float64, numFeatures)
		for t, w := range smoothed {
			row[t] = math.Log(w) - logTotal
		}
		featureLogProb[c] = row
	}

	nb.classCount = classCount
	nb.classLogPrior = classLogPrior
	nb.featureLogProb = featureLogProb
	return nil
}

// Fitted reports whether Fit has run.
func (nb *MultinomialNB) Fitted() bool {
	return nb.featureLogProb != nil
}

// NumClasses returns the number of classes seen at fit time.
func (nb *MultinomialNB) NumClasses() int {
	return len(nb.classLogPrior)
}

// NumFeatures returns the feature dimension seen at fit time.
func (nb *MultinomialNB) NumFeatures() int {
	if len(nb.featureLogProb) == 0 {
		return 0
	}
	return len(nb.featureLogProb[0])
}

// Alpha returns the smoothing parameter.
func (nb *MultinomialNB) Alpha() float64 {
	return nb.alpha
}

// ClassLogPrior returns the log prior of class c.
func (nb *MultinomialNB) ClassLogPrior(c int) float64 {
	return nb.classLogPrior[c]
}

// FeatureLogProb returns the smoothed log-likelihood of feature t in class c.
func (nb *MultinomialNB) FeatureLogProb(c, t int) float64 {
	return nb.featureLogProb[c][t]
}

// JointLogLikelihood returns log_prior[c] + Σ weight·log_likelihood[c,t]
// for every class.
func (nb *MultinomialNB) JointLogLikelihood(vec SparseVector) ([]float64, error) {
	if !nb.Fitted() {
		return nil, errors.Wrap(apperr.ErrNotFitted, "classifier used before fit")
	}

	numFeatures := nb.NumFeatures()
	scores := make([]float64, len(nb.classLogPrior))
	for c, prior := range nb.classLogPrior {
		score := prior
		row := nb.featureLogProb[c]
		for k, idx := range vec.Indices {
			if idx < 0 || idx >= numFeatures {
				return nil, errors.Errorf("feature index %d out of range", idx)
			}
			score += vec.Values[k] * row[idx]
		}
		scores[c] = score
	}
	return scores, nil
}

// Predict returns the class with the highest joint log-likelihood.
func (nb *MultinomialNB) Predict(vec SparseVector) (int, error) {
	scores, err := nb.JointLogLikelihood(vec)
	if err != nil {
		return 0, err
	}
	return argmax(scores), nil
}

// PredictProba returns per-class posterior probabilities, the soft-max of
// the joint log-likelihoods.
func (nb *MultinomialNB) PredictProba(vec SparseVector) ([]float64, error) {
	scores, err := nb.JointLogLikelihood(vec)
	if err != nil {
		return nil, err
	}
	return softmax(scores), nil
}

// State exports the fitted parameters.
func (nb *MultinomialNB) State() (NBState, error) {
	if !nb.Fitted() {
		return NBState{}, errors.Wrap(apperr.ErrNotFitted, "classifier has no state to export")
	}
	rows := make([][]float64, len(nb.featureLogProb))
	for c, row := range nb.featureLogProb {
		rows[c] = append([]float64(nil), row...)
	}
	return NBState{
		Alpha:          nb.alpha,
		ClassCount:     append([]float64(nil), nb.classCount...),
		ClassLogPrior:  append([]float64(nil), nb.classLogPrior...),
		FeatureLogProb: rows,
	}, nil
}

// MultinomialNBFromState rebuilds a fitted classifier, checking shapes and
// that every parameter is finite.
func MultinomialNBFromState(s NBState) (*MultinomialNB, error) {
	if s.Alpha <= 0 || !isFinite(s.Alpha) {
		return nil, errors.Errorf("invalid smoothing alpha %v", s.Alpha)
	}
	numClasses := len(s.ClassLogPrior)
	if numClasses < 2 {
		return nil, errors.Errorf("need at least 2 class priors, got %d", numClasses)
	}
	if len(s.FeatureLogProb) != numClasses || len(s.ClassCount) != numClasses {
		return nil, errors.Errorf("likelihood table has %d rows and %d class counts for %d classes",
			len(s.FeatureLogProb), len(s.ClassCount), numClasses)
	}
	numFeatures := len(s.FeatureLogProb[0])
	if numFeatures == 0 {
		return nil, errors.New("likelihood table has no features")
	}

	for c, row := range s.FeatureLogProb {
		if len(row) != numFeatures {
			return nil, errors.Errorf("likelihood row %d has %d features, want %d", c, len(row), numFeatures)
		}
		if !isFinite(s.ClassLogPrior[c]) || s.ClassLogPrior[c] > 0 {
			return nil, errors.Errorf("invalid log prior %v for class %d", s.ClassLogPrior[c], c)
		}
		for t, lp := range row {
			if !isFinite(lp) || lp > 0 {
				return nil, errors.Errorf("invalid log likelihood %v at class %d feature %d", lp, c, t)
			}
		}
	}

	rows := make([][]float64, numClasses)
	for c, row := range s.FeatureLogProb {
		rows[c] = append([]float64(nil), row...)
	}
	return &MultinomialNB{
		alpha:          s.Alpha,
		classCount:     append([]float64(nil), s.ClassCount...),
		classLogPrior:  append([]float64(nil), s.ClassLogPrior...),
		featureLogProb: rows,
	}, nil
}

func argmax(scores []float64) int {
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return best
}

func softmax(scores []float64) []float64 {
	lse := floats.LogSumExp(scores)
	probs := make([]float64, len(scores))
	for c, s := range scores {
		probs[c] = math.Exp(s - lse)
	}
	return probs
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
