package ingest

import (
	"reflect"
	"testing"
)

var engLang = Language{Code: "eng", Confidence: 0.9}

func TestCapitalizedExtractor(t *testing.T) {
	ex := NewCapitalizedExtractor()

	got := ex.Extract("Phil and Rhonda went to Paris", engLang)
	want := []Entity{
		{Text: "Phil", Category: PlaceholderCategory, Start: 0, End: 4},
		{Text: "Rhonda", Category: PlaceholderCategory, Start: 9, End: 15},
		{Text: "Paris", Category: PlaceholderCategory, Start: 24, End: 29},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestCapitalizedExtractorSentenceStarters(t *testing.T) {
	ex := NewCapitalizedExtractor()

	got := ex.Extract("The dog saw Phil", engLang)
	if len(got) != 1 || got[0].Text != "Phil" {
		t.Errorf("expected only Phil, got %+v", got)
	}

	// starters are only skipped in first position
	got = ex.Extract("I told I", engLang)
	if len(got) != 1 || got[0].Start != 7 {
		t.Errorf("expected the second I only, got %+v", got)
	}
}

func TestCapitalizedExtractorLanguageGate(t *testing.T) {
	ex := NewCapitalizedExtractor()

	tests := []struct {
		name string
		lang Language
	}{
		{"unknown", Language{}},
		{"french", Language{Code: "fra", Confidence: 0.99}},
		{"low confidence", Language{Code: "eng", Confidence: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.Extract("Phil went to Paris", tt.lang); len(got) != 0 {
				t.Errorf("expected no entities, got %+v", got)
			}
		})
	}
}

func TestCapitalizedExtractorLowercaseNeverFires(t *testing.T) {
	ex := NewCapitalizedExtractor()
	if got := ex.Extract("phil went to paris", engLang); len(got) != 0 {
		t.Errorf("expected no entities on lower-cased text, got %+v", got)
	}
}

func TestCapitalizedExtractorRuneOffsets(t *testing.T) {
	ex := NewCapitalizedExtractor()

	got := ex.Extract("Zoë met Ana", engLang)
	want := []Entity{
		{Text: "Zoë", Category: PlaceholderCategory, Start: 0, End: 3},
		{Text: "Ana", Category: PlaceholderCategory, Start: 8, End: 11},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestGazetteerExtractor(t *testing.T) {
	ex := NewGazetteerExtractor(map[string][]string{
		"CONTACT": {"Phil", "Aunt  Sherry"},
	})

	got := ex.Extract("saw aunt sherry and phil today", Language{})
	want := []Entity{
		{Text: "aunt sherry", Category: "CONTACT", Start: 4, End: 15},
		{Text: "phil", Category: "CONTACT", Start: 20, End: 24},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestMultiExtractorMergesByOffset(t *testing.T) {
	gaz := NewGazetteerExtractor(map[string][]string{"CONTACT": {"phil"}})
	multi := MultiExtractor{gaz, NewCapitalizedExtractor()}

	got := multi.Extract("Saw Phil", engLang)
	want := []Entity{
		{Text: "Saw", Category: PlaceholderCategory, Start: 0, End: 3},
		{Text: "Phil", Category: "CONTACT", Start: 4, End: 8},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}
