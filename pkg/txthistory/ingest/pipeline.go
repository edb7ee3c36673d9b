package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/txthistory/pkg/txthistory/sentiment"
)

// EntitySource selects which normalized copy entity extraction runs against.
type EntitySource int

const (
	// EntitiesFromCased runs extraction on NormalizeCased output so
	// capitalization survives.
	EntitiesFromCased EntitySource = iota
	// EntitiesFromNormalized runs extraction on the lower-cased text, which
	// leaves capitalization heuristics with nothing to match.
	EntitiesFromNormalized
)

// ParseEntitySource maps a config value to an EntitySource.
func ParseEntitySource(s string) (EntitySource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cased":
		return EntitiesFromCased, nil
	case "normalized", "processed":
		return EntitiesFromNormalized, nil
	}
	return 0, fmt.Errorf("unknown entity source %q", s)
}

// Pipeline orchestrates the full analysis flow:
// text → normalization → tokenization → stemming, sentiment, entities, language
//
// A Pipeline holds only read-only resources and is safe for concurrent use.
type Pipeline struct {
	tokenizer  *Tokenizer
	stemmer    *Stemmer
	scorer     *sentiment.Scorer
	extractor  EntityExtractor
	identifier LanguageIdentifier
	source     EntitySource
	maxRunes   int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEntitySource selects the text entity extraction runs on.
func WithEntitySource(src EntitySource) Option {
	return func(p *Pipeline) { p.source = src }
}

// WithMaxTextLength truncates raw text to n runes before analysis. n <= 0 disables truncation.
func WithMaxTextLength(n int) Option {
	return func(p *Pipeline) { p.maxRunes = n }
}

// NewPipeline creates an analysis pipeline with the given components.
// A nil scorer disables sentiment, a nil extractor disables entity extraction
// and a nil identifier leaves every language unknown.
func NewPipeline(tokenizer *Tokenizer, scorer *sentiment.Scorer, extractor EntityExtractor, identifier LanguageIdentifier, opts ...Option) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	p := &Pipeline{
		tokenizer:  tokenizer,
		stemmer:    NewStemmer(),
		scorer:     scorer,
		extractor:  extractor,
		identifier: identifier,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analysis is the annotation derived from one message text
type Analysis struct {
	ProcessedText string
	Tokens        []string
	StemmedText   string
	Entities      []Entity
	Sentiment     *float64 // nil when sentiment scoring is disabled
	Language      Language
}

// Process runs a message text through the full pipeline
func (p *Pipeline) Process(raw string) Analysis {
	raw = truncateRunes(raw, p.maxRunes)

	// 1. Normalize
	cased := NormalizeCased(raw)
	processed := strings.ToLower(cased)

	// 2. Tokenize (stopwords removed) and stem
	tokens := p.tokenizer.Tokenize(processed)
	stemmed := p.stemmer.StemJoined(tokens)

	// 3. Sentiment over the unfiltered words
	var score *float64
	if p.scorer != nil {
		s := p.scorer.Score(processed).Score
		score = &s
	}

	// 4. Language, once, on the raw text
	var lang Language
	if p.identifier != nil {
		lang = p.identifier.Identify(raw)
	}

	// 5. Entities
	entities := []Entity{}
	if p.extractor != nil {
		text := cased
		if p.source == EntitiesFromNormalized {
			text = processed
		}
		entities = p.extractor.Extract(text, lang)
	}

	return Analysis{
		ProcessedText: processed,
		Tokens:        tokens,
		StemmedText:   stemmed,
		Entities:      entities,
		Sentiment:     score,
		Language:      lang,
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
