package learning

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/apperr"
)

// SparseVector is a feature vector stored as parallel index/value slices
// with strictly increasing indices.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Vectorizer turns text into L2-normalized TF-IDF vectors over a vocabulary
// frozen at Fit time.
type Vectorizer struct {
	tokenizer  Tokenizer
	terms      []string
	vocabulary map[string]int
	idf        []float64
}

// VectorizerState is the serializable form of a fitted Vectorizer.
type VectorizerState struct {
	Tokenizer Tokenizer `json:"tokenizer"`
	Terms     []string  `json:"terms"`
	IDF       []float64 `json:"idf"`
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(tokenizer Tokenizer) *Vectorizer {
	return &Vectorizer{tokenizer: tokenizer}
}

// Fit builds the vocabulary and smoothed IDF weights from corpus.
// Vocabulary indices follow lexicographic term order.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.Wrap(apperr.ErrInsufficientData, "cannot fit vectorizer on an empty corpus")
	}

	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenizer.Tokens(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}
	if len(docFreq) == 0 {
		return errors.Wrap(apperr.ErrInsufficientData, "corpus contains no tokens")
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	idf := make([]float64, len(terms))
	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	v.terms = terms
	v.vocabulary = vocabulary
	v.idf = idf
	return nil
}

// Transform converts text into a TF-IDF vector. Unknown terms are ignored;
// text without known terms yields an empty vector.
func (v *Vectorizer) Transform(text string) (SparseVector, error) {
	if !v.Fitted() {
		return SparseVector{}, errors.Wrap(apperr.ErrNotFitted, "vectorizer transform called before fit")
	}

	counts := make(map[int]float64)
	for _, tok := range v.tokenizer.Tokens(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}, nil
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.idf[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range vec.Values {
		vec.Values[i] /= norm
	}

	return vec, nil
}

// TransformAll transforms every text in corpus.
func (v *Vectorizer) TransformAll(corpus []string) ([]SparseVector, error) {
	out := make([]SparseVector, len(corpus))
	for i, doc := range corpus {
		vec, err := v.Transform(doc)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// FitTransform fits on corpus and returns its vectors.
func (v *Vectorizer) FitTransform(corpus []string) ([]SparseVector, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	return v.TransformAll(corpus)
}

// Fitted reports whether Fit has run.
func (v *Vectorizer) Fitted() bool {
	return v.vocabulary != nil
}

// VocabularySize returns the number of known terms.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Index returns the vocabulary index of term.
func (v *Vectorizer) Index(term string) (int, bool) {
	idx, ok := v.vocabulary[term]
	return idx, ok
}

// Term returns the term at vocabulary index idx.
func (v *Vectorizer) Term(idx int) string {
	return v.terms[idx]
}

// Tokenizer returns the tokenizer used by the vectorizer.
func (v *Vectorizer) Tokenizer() Tokenizer {
	return v.tokenizer
}

// State exports the fitted vocabulary and IDF table.
func (v *Vectorizer) State() (VectorizerState, error) {
	if !v.Fitted() {
		return VectorizerState{}, errors.Wrap(apperr.ErrNotFitted, "vectorizer has no state to export")
	}
	return VectorizerState{
		Tokenizer: v.tokenizer,
		Terms:     append([]string(nil), v.terms...),
		IDF:       append([]float64(nil), v.idf...),
	}, nil
}

// VectorizerFromState rebuilds a fitted vectorizer, checking that the terms
// are sorted and unique and that every IDF weight is usable.
func VectorizerFromState(s VectorizerState) (*Vectorizer, error) {
	if len(s.Terms) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	if len(s.IDF) != len(s.Terms) {
		return nil, errors.Errorf("idf has %d weights for %d terms", len(s.IDF), len(s.Terms))
	}
	if s.Tokenizer.MinTokenLength < 1 {
		return nil, errors.Errorf("invalid min token length %d", s.Tokenizer.MinTokenLength)
	}

	vocabulary := make(map[string]int, len(s.Terms))
	for i, term := range s.Terms {
		if i > 0 && s.Terms[i-1] >= term {
			return nil, errors.Errorf("vocabulary not strictly sorted at index %d", i)
		}
		if w := s.IDF[i]; math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, errors.Errorf("invalid idf weight %v for term %q", w, term)
		}
		vocabulary[term] = i
	}

	return &Vectorizer{
		tokenizer:  s.Tokenizer,
		terms:      append([]string(nil), s.Terms...),
		vocabulary: vocabulary,
		idf:        append([]float64(nil), s.IDF...),
	}, nil
}
