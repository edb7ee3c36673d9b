// Package analytics aggregates analysis records into corpus-level statistics.
package analytics

import (
	"math"
	"sort"

	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

// Analyzer aggregates message-level token, entity, language and sentiment stats.
type Analyzer struct {
	totalMessages int64
	tokenDF       map[string]int64
	pairCounts    map[pair]int64 // message-level co-occurrence
	bigramCounts  map[pair]int64 // adjacent token pairs only
	entities      map[string]int64
	languages     map[string]int64
	sentiment     sentimentAcc
}

type sentimentAcc struct {
	scored   int64
	sum      float64
	positive int64
	negative int64
	neutral  int64
	min, max float64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		tokenDF:      make(map[string]int64),
		pairCounts:   make(map[pair]int64),
		bigramCounts: make(map[pair]int64),
		entities:     make(map[string]int64),
		languages:    make(map[string]int64),
	}
}

// Process consumes one analysis record.
func (a *Analyzer) Process(rec store.Analysis) {
	a.totalMessages++

	seen := make(map[string]struct{})
	for _, tok := range rec.Tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		a.tokenDF[tok]++
	}

	// Message-level pair counts (all unique tokens in the message)
	unique := make([]string, 0, len(seen))
	for tok := range seen {
		unique = append(unique, tok)
	}
	sort.Strings(unique)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a.pairCounts[newPair(unique[i], unique[j])]++
		}
	}

	// Bigram counts (adjacent tokens only, preserving order)
	for i := 0; i < len(rec.Tokens)-1; i++ {
		if rec.Tokens[i] == "" || rec.Tokens[i+1] == "" || rec.Tokens[i] == rec.Tokens[i+1] {
			continue
		}
		a.bigramCounts[pair{A: rec.Tokens[i], B: rec.Tokens[i+1]}]++
	}

	for _, e := range rec.Entities {
		a.entities[e.Text]++
	}

	lang := rec.Language
	if lang == "" {
		lang = "und"
	}
	a.languages[lang]++

	if rec.Sentiment != nil {
		s := *rec.Sentiment
		acc := &a.sentiment
		if acc.scored == 0 || s < acc.min {
			acc.min = s
		}
		if acc.scored == 0 || s > acc.max {
			acc.max = s
		}
		acc.scored++
		acc.sum += s
		switch {
		case s > 0:
			acc.positive++
		case s < 0:
			acc.negative++
		default:
			acc.neutral++
		}
	}
}

// Sentiment summarizes the scores seen.
type Sentiment struct {
	Scored   int64
	Mean     float64
	Min      float64
	Max      float64
	Positive int64
	Negative int64
	Neutral  int64
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalMessages int64
	TokenDF       map[string]int64
	PairCounts    map[pair]int64
	BigramCounts  map[pair]int64
	Entities      map[string]int64
	Languages     map[string]int64
	Sentiment     Sentiment
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		TotalMessages: a.totalMessages,
		TokenDF:       copyCounts(a.tokenDF),
		PairCounts:    copyPairs(a.pairCounts),
		BigramCounts:  copyPairs(a.bigramCounts),
		Entities:      copyCounts(a.entities),
		Languages:     copyCounts(a.languages),
		Sentiment: Sentiment{
			Scored:   a.sentiment.scored,
			Min:      a.sentiment.min,
			Max:      a.sentiment.max,
			Positive: a.sentiment.positive,
			Negative: a.sentiment.negative,
			Neutral:  a.sentiment.neutral,
		},
	}
	if a.sentiment.scored > 0 {
		s.Sentiment.Mean = a.sentiment.sum / float64(a.sentiment.scored)
	}
	return s
}

// FromAnalyses aggregates a list of records.
func FromAnalyses(recs []store.Analysis) Stats {
	a := NewAnalyzer()
	for _, rec := range recs {
		a.Process(rec)
	}
	return a.Snapshot()
}

// Count is a key with its frequency.
type Count struct {
	Key   string
	Count int64
}

// TopTokens returns the tokens used in the most messages.
func (s Stats) TopTokens(limit int) []Count {
	return top(s.TokenDF, limit)
}

// TopEntities returns the most frequent entity mentions.
func (s Stats) TopEntities(limit int) []Count {
	return top(s.Entities, limit)
}

// TopLanguages returns every language ordered by message count.
func (s Stats) TopLanguages() []Count {
	return top(s.Languages, 0)
}

// PairStat describes combined metrics for a token pair.
type PairStat struct {
	A           string
	B           string
	PMI         float64 // message-level association
	BigramFreq  int64   // how often they appear next to each other
	Support     int64   // messages containing both
	PhraseScore float64 // bigramFreq * PMI
}

// TopPairs returns recurring phrases ranked by bigram frequency weighted by PMI.
// Adjacent pairs with PMI below minPMI are dropped.
func (s Stats) TopPairs(limit int, minPMI float64) []PairStat {
	if s.TotalMessages == 0 {
		return nil
	}
	var stats []PairStat

	for p, bigramCount := range s.BigramCounts {
		dfA := s.TokenDF[p.A]
		dfB := s.TokenDF[p.B]
		if dfA == 0 || dfB == 0 {
			continue
		}

		// PairCounts uses sorted pairs, so normalize the lookup
		support := s.PairCounts[newPair(p.A, p.B)]
		if support == 0 {
			continue
		}
		pmi := computePMI(support, dfA, dfB, s.TotalMessages)
		if pmi < minPMI {
			continue
		}

		stats = append(stats, PairStat{
			A:           p.A,
			B:           p.B,
			PMI:         pmi,
			BigramFreq:  bigramCount,
			Support:     support,
			PhraseScore: float64(bigramCount) * pmi,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].PhraseScore != stats[j].PhraseScore {
			return stats[i].PhraseScore > stats[j].PhraseScore
		}
		if stats[i].BigramFreq != stats[j].BigramFreq {
			return stats[i].BigramFreq > stats[j].BigramFreq
		}
		if stats[i].A != stats[j].A {
			return stats[i].A < stats[j].A
		}
		return stats[i].B < stats[j].B
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func computePMI(pairCount, dfA, dfB, total int64) float64 {
	if dfA == 0 || dfB == 0 || total == 0 {
		return 0
	}
	smooth := 1.0
	numerator := (float64(pairCount) + smooth) / float64(total)
	denominator := ((float64(dfA) + smooth) / float64(total)) * ((float64(dfB) + smooth) / float64(total))
	return math.Log(numerator / denominator)
}

func top(counts map[string]int64, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for k, c := range counts {
		out = append(out, Count{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyPairs(in map[pair]int64) map[pair]int64 {
	out := make(map[pair]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type pair struct {
	A string
	B string
}

func newPair(a, b string) pair {
	if a > b {
		a, b = b, a
	}
	return pair{A: a, B: b}
}
