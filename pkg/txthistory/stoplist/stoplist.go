package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishYAML []byte

// Source records where a stopword came from
type Source int

const (
	SourceDefault Source = iota // shipped English list
	SourceFile                  // loaded from a stoplist file
	SourceManual                // added at runtime
)

// Manager holds the stopword set used by the tokenizer.
// It is built once and then only read during analysis.
type Manager struct {
	stops map[string]Source
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Source, len(initialStops))
	for _, s := range initialStops {
		stops[normalize(s)] = SourceManual
	}
	return &Manager{stops: stops}
}

// Default returns a manager loaded with the built-in English stopwords.
func Default() *Manager {
	terms, err := parse(englishYAML)
	if err != nil {
		// embedded file is part of the build
		panic(fmt.Sprintf("stoplist: embedded english list: %v", err))
	}
	m := &Manager{stops: make(map[string]Source, len(terms))}
	for _, t := range terms {
		m.stops[normalize(t)] = SourceDefault
	}
	return m
}

// LoadFromYAML reads a stoplist file of the form:
//
//	terms:
//	  - the
//	  - and
func LoadFromYAML(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	m := &Manager{stops: make(map[string]Source, len(terms))}
	m.Merge(terms, SourceFile)
	return m, nil
}

func parse(data []byte) ([]string, error) {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return sl.Terms, nil
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	m.stops[normalize(token)] = SourceManual
}

// Merge adds tokens that are not already present, tagged with src.
func (m *Manager) Merge(tokens []string, src Source) {
	for _, t := range tokens {
		t = normalize(t)
		if t == "" {
			continue
		}
		if _, ok := m.stops[t]; !ok {
			m.stops[t] = src
		}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, normalize(token))
}

// SourceOf reports where a stopword came from.
func (m *Manager) SourceOf(token string) (Source, bool) {
	src, ok := m.stops[normalize(token)]
	return src, ok
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords.
func (m *Manager) Len() int { return len(m.stops) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
