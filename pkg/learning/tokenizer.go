package learning

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinTokenLength drops single-character tokens such as "a" or "u".
const DefaultMinTokenLength = 2

// Tokenizer splits text into normalized word tokens.
type Tokenizer struct {
	MinTokenLength int `json:"min_token_length" yaml:"min_token_length"`
}

// NewTokenizer returns a tokenizer keeping tokens of at least minLen runes.
func NewTokenizer(minLen int) Tokenizer {
	if minLen < 1 {
		minLen = 1
	}
	return Tokenizer{MinTokenLength: minLen}
}

// Tokens lowercases text and splits it on every rune that is neither a
// letter nor a digit. Order and duplicates are preserved.
func (t Tokenizer) Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= t.MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
