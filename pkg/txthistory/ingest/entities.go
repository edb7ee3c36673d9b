package ingest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceholderCategory is assigned to every heuristic mention.
const PlaceholderCategory = "PERSON"

// Entity is a candidate named-entity mention. Start and End are rune offsets
// into the normalized text the mention was found in (End is exclusive).
type Entity struct {
	Text     string
	Category string
	Start    int
	End      int
}

// EntityExtractor finds entity mentions in normalized text.
type EntityExtractor interface {
	Extract(text string, lang Language) []Entity
}

// sentenceStarters are skipped when they open the text.
var sentenceStarters = map[string]struct{}{
	"I": {}, "The": {}, "A": {}, "An": {}, "This": {}, "That": {},
}

// CapitalizedExtractor flags capitalized words as mentions. It only runs when
// the language is Language with confidence above MinConfidence. Against
// lower-cased text it never fires.
type CapitalizedExtractor struct {
	Language      string
	MinConfidence float64
}

// NewCapitalizedExtractor returns the English extractor.
func NewCapitalizedExtractor() *CapitalizedExtractor {
	return &CapitalizedExtractor{Language: "eng", MinConfidence: 0.5}
}

// Extract implements EntityExtractor.
func (c *CapitalizedExtractor) Extract(text string, lang Language) []Entity {
	entities := []Entity{}
	if lang.Code != c.Language || lang.Confidence <= c.MinConfidence {
		return entities
	}

	for i, w := range words(text) {
		first, _ := utf8.DecodeRuneInString(w.text)
		if !unicode.IsUpper(first) {
			continue
		}
		if _, starter := sentenceStarters[w.text]; starter && i == 0 {
			continue
		}
		entities = append(entities, Entity{
			Text:     w.text,
			Category: PlaceholderCategory,
			Start:    w.start,
			End:      w.end,
		})
	}
	return entities
}

// GazetteerExtractor matches known names, e.g. the contacts of an archive,
// as whole words. Matching is case-insensitive.
type GazetteerExtractor struct {
	entries map[string]string // lower-cased name -> category
	maxLen  int               // longest name in words
}

// NewGazetteerExtractor builds an extractor from category -> names.
func NewGazetteerExtractor(names map[string][]string) *GazetteerExtractor {
	g := &GazetteerExtractor{entries: make(map[string]string), maxLen: 1}
	for category, list := range names {
		for _, name := range list {
			key := strings.ToLower(strings.Join(strings.Fields(name), " "))
			if key == "" {
				continue
			}
			g.entries[key] = category
			if n := len(strings.Fields(key)); n > g.maxLen {
				g.maxLen = n
			}
		}
	}
	return g
}

// Extract implements EntityExtractor with greedy longest match. The language is ignored.
func (g *GazetteerExtractor) Extract(text string, _ Language) []Entity {
	entities := []Entity{}
	ws := words(text)

	for i := 0; i < len(ws); {
		matched := 0
		maxPhrase := g.maxLen
		if remaining := len(ws) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 1; n-- {
			parts := make([]string, n)
			for k := 0; k < n; k++ {
				parts[k] = strings.ToLower(ws[i+k].text)
			}
			if category, ok := g.entries[strings.Join(parts, " ")]; ok {
				entities = append(entities, Entity{
					Text:     spanText(text, ws[i].start, ws[i+n-1].end),
					Category: category,
					Start:    ws[i].start,
					End:      ws[i+n-1].end,
				})
				matched = n
				break
			}
		}
		if matched > 0 {
			i += matched
		} else {
			i++
		}
	}
	return entities
}

// MultiExtractor runs several extractors and merges their mentions by offset.
// When two mentions start at the same offset the earlier extractor wins.
type MultiExtractor []EntityExtractor

// Extract implements EntityExtractor.
func (m MultiExtractor) Extract(text string, lang Language) []Entity {
	entities := []Entity{}
	seen := make(map[int]struct{})
	for _, ex := range m {
		for _, e := range ex.Extract(text, lang) {
			if _, dup := seen[e.Start]; dup {
				continue
			}
			seen[e.Start] = struct{}{}
			entities = append(entities, e)
		}
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Start < entities[j].Start
	})
	return entities
}

type word struct {
	text       string
	start, end int // rune offsets
}

// words splits on whitespace and records rune offsets.
func words(text string) []word {
	var out []word
	start := -1
	var b strings.Builder
	pos := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, word{text: b.String(), start: start, end: pos})
				b.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		}
		pos++
	}
	if start >= 0 {
		out = append(out, word{text: b.String(), start: start, end: pos})
	}
	return out
}

func spanText(text string, start, end int) string {
	runes := []rune(text)
	return string(runes[start:end])
}
