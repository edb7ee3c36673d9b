package ingest

import (
	"strings"

	"github.com/cognicore/txthistory/pkg/txthistory/stoplist"
)

// Tokenizer splits normalized text into tokens, removing stopwords.
type Tokenizer struct {
	stops *stoplist.Manager
}

// NewTokenizer creates a tokenizer over the given stoplist.
// A nil stoplist selects the built-in English list.
func NewTokenizer(stops *stoplist.Manager) *Tokenizer {
	if stops == nil {
		stops = stoplist.Default()
	}
	return &Tokenizer{stops: stops}
}

// Tokenize splits normalized text on whitespace and drops stopwords.
// Order and duplicates are preserved.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t.stops.IsStop(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Stoplist returns the stopword set backing the tokenizer.
func (t *Tokenizer) Stoplist() *stoplist.Manager {
	return t.stops
}
