package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Lexicon stores the word lists used for sentiment scoring:
// - Weights: sentiment-bearing words (positive > 0, negative < 0)
// - Intensifiers: words that scale the following sentiment word
// - Negations: words that flip and dampen a sentiment word up to two tokens later
//
// A Lexicon is immutable once built; it is shared read-only by every scorer.
type Lexicon struct {
	weights      map[string]float64
	intensifiers map[string]float64
	negations    map[string]struct{}
}

// File is the on-disk YAML shape of a lexicon.
type File struct {
	Positive     map[string]float64 `yaml:"positive"`
	Negative     map[string]float64 `yaml:"negative"`
	Intensifiers map[string]float64 `yaml:"intensifiers"`
	Negations    []string           `yaml:"negations"`
}

// Default returns the built-in English lexicon.
func Default() *Lexicon {
	lex, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default: %v", err))
	}
	return lex
}

// LoadFromYAML loads a lexicon from a YAML file.
//
// Expected format:
//
//	positive:
//	  good: 0.5
//	negative:
//	  bad: -0.5
//	intensifiers:
//	  very: 1.5
//	negations: [not, never]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse builds a lexicon from YAML bytes.
func Parse(data []byte) (*Lexicon, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f)
}

// New builds a lexicon from its file representation, validating signs and multipliers.
func New(f File) (*Lexicon, error) {
	lex := &Lexicon{
		weights:      make(map[string]float64, len(f.Positive)+len(f.Negative)),
		intensifiers: make(map[string]float64, len(f.Intensifiers)),
		negations:    make(map[string]struct{}, len(f.Negations)),
	}

	for w, v := range f.Positive {
		if v <= 0 {
			return nil, fmt.Errorf("positive weight for %q must be > 0, got %v", w, v)
		}
		lex.weights[strings.ToLower(w)] = v
	}
	for w, v := range f.Negative {
		if v >= 0 {
			return nil, fmt.Errorf("negative weight for %q must be < 0, got %v", w, v)
		}
		key := strings.ToLower(w)
		if _, dup := lex.weights[key]; dup {
			return nil, fmt.Errorf("%q is listed as both positive and negative", w)
		}
		lex.weights[key] = v
	}
	for w, v := range f.Intensifiers {
		if v <= 0 {
			return nil, fmt.Errorf("intensifier %q must be > 0, got %v", w, v)
		}
		lex.intensifiers[strings.ToLower(w)] = v
	}
	for _, w := range f.Negations {
		lex.negations[strings.ToLower(w)] = struct{}{}
	}

	return lex, nil
}

// Weight returns the sentiment weight of a token.
func (l *Lexicon) Weight(token string) (float64, bool) {
	w, ok := l.weights[token]
	return w, ok
}

// Intensifier returns the multiplier of an intensifier token.
func (l *Lexicon) Intensifier(token string) (float64, bool) {
	m, ok := l.intensifiers[token]
	return m, ok
}

// IsNegation reports whether token negates a following sentiment word.
func (l *Lexicon) IsNegation(token string) bool {
	_, ok := l.negations[token]
	return ok
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	var s Stats
	for _, w := range l.weights {
		if w > 0 {
			s.Positive++
		} else {
			s.Negative++
		}
	}
	s.Intensifiers = len(l.intensifiers)
	s.Negations = len(l.negations)
	return s
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Positive     int
	Negative     int
	Intensifiers int
	Negations    int
}
