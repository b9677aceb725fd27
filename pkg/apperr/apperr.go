// Package apperr holds the error taxonomy shared by the training and
// inference paths.
package apperr

import (
	"github.com/pkg/errors"
)

var (
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrDatasetMalformed = errors.New("dataset malformed")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFitted        = errors.New("not fitted")
	ErrEmptyInput       = errors.New("empty input")
	ErrSerialization    = errors.New("serialization error")
	ErrModelNotFound    = errors.New("model not found")
	ErrModelCorrupt     = errors.New("model corrupt")
)

// Hint returns a remediation line for err, or "" when there is nothing
// better to suggest than the error itself.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrModelNotFound):
		return "Run 'zsms train' first to create the model artifact."
	case errors.Is(err, ErrModelCorrupt):
		return "The model artifact is unreadable; rerun 'zsms train' to replace it."
	case errors.Is(err, ErrDatasetNotFound):
		return "Check --dataset (or dataset.path) points at an existing CSV file."
	case errors.Is(err, ErrDatasetMalformed):
		return "Each row must be 'label,text' with label spam or ham, no header row."
	case errors.Is(err, ErrInsufficientData):
		return "Both spam and ham need at least 2 examples each."
	case errors.Is(err, ErrSerialization):
		return "Check the model path is writable and the disk is not full."
	case errors.Is(err, ErrEmptyInput):
		return "Provide a non-empty message."
	case errors.Is(err, ErrNotFitted):
		return "Fit the extractor and classifier before predicting."
	}
	return ""
}
