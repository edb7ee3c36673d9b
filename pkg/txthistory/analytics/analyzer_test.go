package analytics

import (
	"math"
	"testing"

	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

func score(v float64) *float64 { return &v }

func sampleRecords() []store.Analysis {
	return []store.Analysis{
		{Tokens: []string{"happy", "birthday", "mom"}, Sentiment: score(0.6), Language: "eng",
			Entities: []store.Entity{{Text: "Mom", Category: "PERSON"}}},
		{Tokens: []string{"happy", "birthday", "phil"}, Sentiment: score(0.6), Language: "eng",
			Entities: []store.Entity{{Text: "Phil", Category: "PERSON"}}},
		{Tokens: []string{"traffic", "terrible"}, Sentiment: score(-0.9), Language: "eng"},
		{Tokens: []string{"ok"}, Sentiment: score(0)},
		{Tokens: []string{"happy"}},
	}
}

func TestAnalyzerCounts(t *testing.T) {
	stats := FromAnalyses(sampleRecords())

	if stats.TotalMessages != 5 {
		t.Errorf("TotalMessages = %d", stats.TotalMessages)
	}
	if stats.TokenDF["happy"] != 3 || stats.TokenDF["birthday"] != 2 {
		t.Errorf("TokenDF = %v", stats.TokenDF)
	}
	if stats.Languages["eng"] != 3 || stats.Languages["und"] != 2 {
		t.Errorf("Languages = %v", stats.Languages)
	}

	top := stats.TopTokens(2)
	if len(top) != 2 || top[0].Key != "happy" || top[1].Key != "birthday" {
		t.Errorf("TopTokens = %v", top)
	}
	if langs := stats.TopLanguages(); len(langs) != 2 || langs[0].Key != "eng" {
		t.Errorf("TopLanguages = %v", langs)
	}
	if ents := stats.TopEntities(0); len(ents) != 2 || ents[0].Key != "Mom" {
		t.Errorf("TopEntities = %v", ents)
	}
}

func TestAnalyzerSentiment(t *testing.T) {
	s := FromAnalyses(sampleRecords()).Sentiment

	if s.Scored != 4 || s.Positive != 2 || s.Negative != 1 || s.Neutral != 1 {
		t.Errorf("Sentiment counts = %+v", s)
	}
	if math.Abs(s.Mean-0.075) > 1e-9 {
		t.Errorf("Mean = %v, want 0.075", s.Mean)
	}
	if s.Min != -0.9 || s.Max != 0.6 {
		t.Errorf("Min/Max = %v/%v", s.Min, s.Max)
	}
}

func TestTopPairs(t *testing.T) {
	stats := FromAnalyses(sampleRecords())

	pairs := stats.TopPairs(0, 0)
	if len(pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].A != "traffic" || pairs[0].B != "terrible" {
		t.Errorf("top pair = %+v", pairs[0])
	}
	var found bool
	for _, p := range pairs {
		if p.A == "happy" && p.B == "birthday" {
			found = true
			if p.BigramFreq != 2 || p.Support != 2 {
				t.Errorf("happy birthday = %+v", p)
			}
		}
	}
	if !found {
		t.Error("expected happy birthday phrase")
	}
	if got := stats.TopPairs(1, 0); len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}

	if got := FromAnalyses(nil).TopPairs(5, 0); got != nil {
		t.Errorf("empty stats should yield no pairs, got %v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	a := NewAnalyzer()
	a.Process(store.Analysis{Tokens: []string{"x"}})
	snap := a.Snapshot()
	snap.TokenDF["x"] = 100
	if a.Snapshot().TokenDF["x"] != 1 {
		t.Error("snapshot shares state with analyzer")
	}
}
