package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLexicon(t *testing.T) {
	lex := Default()

	tests := []struct {
		token string
		want  float64
	}{
		{"good", 0.5},
		{"love", 0.8},
		{"terrible", -0.9},
		{"hate", -0.8},
	}
	for _, tt := range tests {
		got, ok := lex.Weight(tt.token)
		if !ok || got != tt.want {
			t.Errorf("Weight(%q) = %v, %v; want %v", tt.token, got, ok, tt.want)
		}
	}

	if _, ok := lex.Weight("sky"); ok {
		t.Error("'sky' should not carry sentiment")
	}
	if m, ok := lex.Intensifier("very"); !ok || m != 1.5 {
		t.Errorf("Intensifier(very) = %v, %v", m, ok)
	}
	for _, neg := range []string{"not", "never", "dont", "t"} {
		if !lex.IsNegation(neg) {
			t.Errorf("%q should be a negation", neg)
		}
	}
}

func TestDefaultStats(t *testing.T) {
	s := Default().Stats()
	if s.Positive == 0 || s.Negative == 0 || s.Intensifiers == 0 || s.Negations == 0 {
		t.Errorf("default lexicon has empty sections: %+v", s)
	}
}

func TestParseRejectsWrongSigns(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative positive", "positive:\n  good: -0.5\n"},
		{"positive negative", "negative:\n  bad: 0.5\n"},
		{"zero intensifier", "intensifiers:\n  very: 0\n"},
		{"both lists", "positive:\n  meh: 0.1\nnegative:\n  meh: -0.1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromYAMLLowercases(t *testing.T) {
	content := strings.Join([]string{
		"positive:",
		"  Great: 0.7",
		"negative:",
		"  Awful: -0.8",
		"intensifiers:",
		"  VERY: 2",
		"negations: [NOT]",
	}, "\n")
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if w, ok := lex.Weight("great"); !ok || w != 0.7 {
		t.Errorf("Weight(great) = %v, %v", w, ok)
	}
	if w, ok := lex.Weight("awful"); !ok || w != -0.8 {
		t.Errorf("Weight(awful) = %v, %v", w, ok)
	}
	if m, ok := lex.Intensifier("very"); !ok || m != 2 {
		t.Errorf("Intensifier(very) = %v, %v", m, ok)
	}
	if !lex.IsNegation("not") {
		t.Error("'not' should be a negation")
	}
}
