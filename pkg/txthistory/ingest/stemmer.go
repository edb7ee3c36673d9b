package ingest

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// Stemmer reduces tokens to their Snowball English (Porter2) stems.
type Stemmer struct{}

// NewStemmer creates a stemmer.
func NewStemmer() *Stemmer {
	return &Stemmer{}
}

// Stem stems a single token.
func (s *Stemmer) Stem(token string) string {
	return english.Stem(token, true)
}

// StemJoined stems each token and joins the stems with single spaces.
func (s *Stemmer) StemJoined(tokens []string) string {
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = s.Stem(tok)
	}
	return strings.Join(stems, " ")
}
