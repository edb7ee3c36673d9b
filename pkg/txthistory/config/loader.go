package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/txthistory/pkg/txthistory/ingest"
	"github.com/cognicore/txthistory/pkg/txthistory/lexicon"
	"github.com/cognicore/txthistory/pkg/txthistory/sentiment"
	"github.com/cognicore/txthistory/pkg/txthistory/stoplist"
)

// Gazetteer maps an entity category to the names that belong to it.
type Gazetteer map[string][]string

// LoadGazetteer loads a gazetteer from a YAML file of the form:
//
//	CONTACT:
//	  - aunt sherry
//	  - phil
func LoadGazetteer(path string) (Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var g Gazetteer
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return g, nil
}

// Loader loads all configuration files and constructs components
type Loader struct {
	NLP NLP
	// Identifier overrides the language identifier; nil selects whatlanggo.
	Identifier ingest.LanguageIdentifier
}

// Components holds the shared read-only analysis resources
type Components struct {
	Tokenizer  *ingest.Tokenizer
	Lexicon    *lexicon.Lexicon
	Scorer     *sentiment.Scorer // nil when sentiment is disabled
	Extractor  ingest.EntityExtractor
	Identifier ingest.LanguageIdentifier
	Pipeline   *ingest.Pipeline
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Load stoplist
	stops := stoplist.Default()
	if l.NLP.StoplistPath != "" {
		loaded, err := stoplist.LoadFromYAML(l.NLP.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops = loaded
	}
	stops.Merge(l.NLP.ExtraStopwords, stoplist.SourceManual)
	comp.Tokenizer = ingest.NewTokenizer(stops)

	// Load sentiment lexicon
	comp.Lexicon = lexicon.Default()
	if l.NLP.LexiconPath != "" {
		lex, err := lexicon.LoadFromYAML(l.NLP.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
	}
	if l.NLP.EnableSentiment {
		comp.Scorer = sentiment.New(comp.Lexicon)
	}

	// Entity extraction: gazetteer names first, then the capitalization heuristic
	if l.NLP.EnableNER {
		extractors := ingest.MultiExtractor{}
		if l.NLP.GazetteerPath != "" {
			g, err := LoadGazetteer(l.NLP.GazetteerPath)
			if err != nil {
				return nil, fmt.Errorf("load gazetteer: %w", err)
			}
			extractors = append(extractors, ingest.NewGazetteerExtractor(g))
		}
		extractors = append(extractors, ingest.NewCapitalizedExtractor())
		comp.Extractor = extractors
	}

	if l.NLP.EnableLanguageDetection {
		comp.Identifier = l.Identifier
		if comp.Identifier == nil {
			comp.Identifier = ingest.WhatlangIdentifier{}
		}
	}

	source, err := ingest.ParseEntitySource(l.NLP.EntitySource)
	if err != nil {
		return nil, err
	}
	comp.Pipeline = ingest.NewPipeline(
		comp.Tokenizer,
		comp.Scorer,
		comp.Extractor,
		comp.Identifier,
		ingest.WithEntitySource(source),
		ingest.WithMaxTextLength(l.NLP.MaxTextLength),
	)

	return comp, nil
}
