package sentiment

import (
	"strings"

	"github.com/cognicore/txthistory/pkg/txthistory/lexicon"
)

// NegationDamping scales a negated weight after its sign is flipped.
const NegationDamping = 0.8

// Scorer computes lexicon-based sentiment scores.
//
// The scorer walks the whitespace-split tokens of normalized text once, looking
// back at most two tokens:
//   - token i-1 in the intensifier lexicon multiplies the weight
//   - token i-1 or i-2 in the negation set flips the weight and dampens it by NegationDamping
//
// The score is the mean adjusted weight of the sentiment-bearing tokens, clamped to [-1, 1].
type Scorer struct {
	lex *lexicon.Lexicon
}

// Result is the outcome of scoring one text.
type Result struct {
	Score float64 // in [-1, 1]; exactly 0 when Hits == 0
	Hits  int     // number of sentiment-bearing tokens
}

// New creates a scorer over lex. A nil lexicon selects lexicon.Default().
func New(lex *lexicon.Lexicon) *Scorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Scorer{lex: lex}
}

// Score scores normalized text. Stopwords must not have been removed:
// context words like "not" and "very" drive the adjustments.
func (s *Scorer) Score(text string) Result {
	return s.ScoreTokens(strings.Fields(text))
}

// ScoreTokens scores an already split token sequence.
func (s *Scorer) ScoreTokens(tokens []string) Result {
	folded := make([]string, len(tokens))
	for i, tok := range tokens {
		folded[i] = strings.ToLower(tok)
	}

	var total float64
	var hits int
	for i, tok := range folded {
		weight, ok := s.lex.Weight(tok)
		if !ok {
			continue
		}

		if i >= 1 {
			if m, ok := s.lex.Intensifier(folded[i-1]); ok {
				weight *= m
			}
		}

		if s.negated(folded, i) {
			weight = -weight * NegationDamping
		}

		total += weight
		hits++
	}

	if hits == 0 {
		return Result{}
	}
	return Result{Score: clamp(total / float64(hits)), Hits: hits}
}

func (s *Scorer) negated(tokens []string, i int) bool {
	if i >= 1 && s.lex.IsNegation(tokens[i-1]) {
		return true
	}
	return i >= 2 && s.lex.IsNegation(tokens[i-2])
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
