// Package model bundles a fitted vectorizer and classifier into the unit
// that is trained, persisted, loaded and queried.
package model

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/apperr"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/learning"
)

// DefaultPath is the artifact location used when none is configured.
const DefaultPath = "spam_model.zsms"

// Prediction is the result of classifying one message. Percentages are in
// [0,100] and sum to 100.
type Prediction struct {
	Label   dataset.Label `json:"label"`
	SpamPct float64       `json:"spam_probability"`
	HamPct  float64       `json:"ham_probability"`
}

// IsSpam reports whether the message was labelled spam.
func (p Prediction) IsSpam() bool {
	return p.Label == dataset.Spam
}

// Metadata describes the training run that produced a model.
type Metadata struct {
	RunID         string         `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	DatasetSource string         `json:"dataset_source,omitempty"`
	TrainCounts   dataset.Counts `json:"train_counts"`
	TestCounts    dataset.Counts `json:"test_counts"`
	TestFraction  float64        `json:"test_fraction"`
	SplitSeed     uint64         `json:"split_seed"`
	TestAccuracy  float64        `json:"test_accuracy"`
}

// Model is a fitted (vectorizer, classifier) pair. It is never mutated after
// construction, so Predict is safe for concurrent use.
type Model struct {
	vectorizer *learning.Vectorizer
	classifier *learning.MultinomialNB
	meta       Metadata
}

// New pairs a fitted vectorizer with a classifier fitted on its output.
func New(v *learning.Vectorizer, nb *learning.MultinomialNB, meta Metadata) (*Model, error) {
	if !v.Fitted() || !nb.Fitted() {
		return nil, errors.Wrap(apperr.ErrNotFitted, "model needs a fitted vectorizer and classifier")
	}
	if nb.NumClasses() != len(dataset.Labels) {
		return nil, errors.Errorf("classifier has %d classes, want %d", nb.NumClasses(), len(dataset.Labels))
	}
	if nb.NumFeatures() != v.VocabularySize() {
		return nil, errors.Errorf("classifier has %d features for a vocabulary of %d",
			nb.NumFeatures(), v.VocabularySize())
	}
	return &Model{vectorizer: v, classifier: nb, meta: meta}, nil
}

// Fit trains a vectorizer and classifier on examples.
func Fit(examples []dataset.Example, tokenizer learning.Tokenizer, alpha float64) (*Model, error) {
	vectorizer := learning.NewVectorizer(tokenizer)
	X, err := vectorizer.FitTransform(dataset.Texts(examples))
	if err != nil {
		return nil, errors.WithMessage(err, "fit feature extractor")
	}

	y := make([]int, len(examples))
	for i, ex := range examples {
		y[i] = ex.Label.Index()
	}

	classifier := learning.NewMultinomialNB(alpha)
	if err := classifier.Fit(X, y, len(dataset.Labels), vectorizer.VocabularySize()); err != nil {
		return nil, errors.WithMessage(err, "fit classifier")
	}

	return New(vectorizer, classifier, Metadata{})
}

// Predict classifies text. Empty or whitespace-only text is rejected with
// apperr.ErrEmptyInput. Text with no known terms is scored on the class
// priors alone.
func (m *Model) Predict(text string) (Prediction, error) {
	vec, err := m.transform(text)
	if err != nil {
		return Prediction{}, err
	}
	c, err := m.classifier.Predict(vec)
	if err != nil {
		return Prediction{}, err
	}
	probs, err := m.classifier.PredictProba(vec)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Label:   dataset.Labels[c],
		SpamPct: probs[dataset.Spam.Index()] * 100,
		HamPct:  probs[dataset.Ham.Index()] * 100,
	}, nil
}

// PredictLabel returns only the most likely class of text.
func (m *Model) PredictLabel(text string) (dataset.Label, error) {
	vec, err := m.transform(text)
	if err != nil {
		return "", err
	}
	c, err := m.classifier.Predict(vec)
	if err != nil {
		return "", err
	}
	return dataset.Labels[c], nil
}

func (m *Model) transform(text string) (learning.SparseVector, error) {
	if strings.TrimSpace(text) == "" {
		return learning.SparseVector{}, errors.Wrap(apperr.ErrEmptyInput, "message is empty")
	}
	return m.vectorizer.Transform(text)
}

// WithMetadata returns a copy of m carrying meta.
func (m *Model) WithMetadata(meta Metadata) *Model {
	return &Model{vectorizer: m.vectorizer, classifier: m.classifier, meta: meta}
}

// Metadata returns the training metadata.
func (m *Model) Metadata() Metadata {
	return m.meta
}

// VocabularySize returns the number of known terms.
func (m *Model) VocabularySize() int {
	return m.vectorizer.VocabularySize()
}

// Alpha returns the classifier smoothing parameter.
func (m *Model) Alpha() float64 {
	return m.classifier.Alpha()
}

// TermWeight is a vocabulary term with its spam-vs-ham log-likelihood ratio.
type TermWeight struct {
	Term     string  `json:"term"`
	LogRatio float64 `json:"log_ratio"`
}

// TopTerms returns the limit terms most indicative of label, strongest first.
func (m *Model) TopTerms(label dataset.Label, limit int) []TermWeight {
	spam, ham := dataset.Spam.Index(), dataset.Ham.Index()
	terms := make([]TermWeight, m.vectorizer.VocabularySize())
	for t := range terms {
		ratio := m.classifier.FeatureLogProb(spam, t) - m.classifier.FeatureLogProb(ham, t)
		if label == dataset.Ham {
			ratio = -ratio
		}
		terms[t] = TermWeight{Term: m.vectorizer.Term(t), LogRatio: ratio}
	}

	sortTermWeights(terms)
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func sortTermWeights(terms []TermWeight) {
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].LogRatio != terms[j].LogRatio {
			return terms[i].LogRatio > terms[j].LogRatio
		}
		return terms[i].Term < terms[j].Term
	})
}
