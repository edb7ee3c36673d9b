package sentiment

import (
	"math"
	"testing"

	"github.com/cognicore/txthistory/pkg/txthistory/lexicon"
)

const epsilon = 1e-9

func TestScoreBoundaryCases(t *testing.T) {
	s := New(nil)

	if got := s.Score("i love this product it s amazing and wonderful").Score; got <= 0 {
		t.Errorf("positive text scored %v, want > 0", got)
	}
	if got := s.Score("this is terrible and i hate it").Score; got >= 0 {
		t.Errorf("negative text scored %v, want < 0", got)
	}
	res := s.Score("the sky is blue and the grass is green")
	if res.Score != 0.0 || res.Hits != 0 {
		t.Errorf("neutral text scored %+v, want exactly 0 with no hits", res)
	}
}

func TestScoreCaseFolding(t *testing.T) {
	s := New(nil)
	if got := s.Score("I LOVE it").Score; math.Abs(got-0.8) > epsilon {
		t.Errorf("expected case-folded 'love' = 0.8, got %v", got)
	}
}

func TestScoreNegation(t *testing.T) {
	s := New(nil)

	good := s.Score("good").Score
	notGood := s.Score("not good").Score

	if math.Abs(notGood-(-good*NegationDamping)) > epsilon {
		t.Errorf("not good = %v, want %v", notGood, -good*NegationDamping)
	}

	// negation two tokens back still applies
	twoBack := s.Score("not that good").Score
	if math.Abs(twoBack-notGood) > epsilon {
		t.Errorf("not that good = %v, want %v", twoBack, notGood)
	}

	// three tokens back does not
	if got := s.Score("not at all good").Score; math.Abs(got-good) > epsilon {
		t.Errorf("negation three tokens back should not apply, got %v", got)
	}

	// contraction left behind by normalization
	if got := s.Score("i don t like it").Score; got >= 0 {
		t.Errorf("don t like = %v, want negative", got)
	}
}

func TestScoreIntensifier(t *testing.T) {
	s := New(nil)

	if got := s.Score("very good").Score; math.Abs(got-0.75) > epsilon {
		t.Errorf("very good = %v, want 0.75", got)
	}

	// intensifier only looks one token back
	if got := s.Score("very much good").Score; math.Abs(got-0.5) > epsilon {
		t.Errorf("very much good = %v, want 0.5", got)
	}

	// intensify then negate
	want := -(0.5 * 1.5) * NegationDamping
	if got := s.Score("not very good").Score; math.Abs(got-want) > epsilon {
		t.Errorf("not very good = %v, want %v", got, want)
	}
}

func TestScoreAveragesAndClamps(t *testing.T) {
	s := New(nil)

	// (0.5 + -0.5) / 2
	res := s.Score("good bad")
	if res.Hits != 2 || math.Abs(res.Score) > epsilon {
		t.Errorf("good bad = %+v, want 0 over 2 hits", res)
	}

	// extremely (1.8) * excellent (0.9) = 1.62, clamped
	if got := s.Score("extremely excellent").Score; got != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", got)
	}
	if got := s.Score("extremely horrible").Score; got != -1.0 {
		t.Errorf("expected clamp to -1.0, got %v", got)
	}
}

func TestScoreCustomLexicon(t *testing.T) {
	lex, err := lexicon.New(lexicon.File{
		Positive:  map[string]float64{"rad": 0.4},
		Negations: []string{"nah"},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := New(lex)

	if got := s.Score("rad").Score; math.Abs(got-0.4) > epsilon {
		t.Errorf("rad = %v", got)
	}
	if got := s.Score("nah rad").Score; math.Abs(got-(-0.4*NegationDamping)) > epsilon {
		t.Errorf("nah rad = %v", got)
	}
	if got := s.Score("good").Score; got != 0 {
		t.Errorf("default words must not leak into custom lexicon, got %v", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := New(nil)
	text := "really happy but so tired and not great"
	first := s.Score(text)
	for i := 0; i < 10; i++ {
		if got := s.Score(text); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}
