package ingest

import (
	"reflect"
	"testing"

	"github.com/cognicore/txthistory/pkg/txthistory/stoplist"
)

func TestTokenizerDefaultStopwords(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("this is a test sentence with stopwords")

	for _, stop := range []string{"this", "is", "a", "with"} {
		for _, tok := range tokens {
			if tok == stop {
				t.Errorf("Stopword %q should be filtered", stop)
			}
		}
	}

	want := []string{"test", "sentence", "stopwords"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokenize = %v, want %v", tokens, want)
	}
}

func TestTokenizerKeepsOrderAndDuplicates(t *testing.T) {
	tokenizer := NewTokenizer(stoplist.NewManager([]string{"the"}))

	got := tokenizer.Tokenize("dog the cat dog the bird")
	want := []string{"dog", "cat", "dog", "bird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizerEmptyInput(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	if tokens := tokenizer.Tokenize(""); len(tokens) != 0 {
		t.Error("Empty input should produce empty output")
	}
	if tokens := tokenizer.Tokenize("   "); len(tokens) != 0 {
		t.Error("Whitespace input should produce empty output")
	}
}

func TestTokenizerOnlyStopwords(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	if tokens := tokenizer.Tokenize("the and the of in a"); len(tokens) != 0 {
		t.Errorf("Text with only stopwords should produce 0 tokens, got %v", tokens)
	}
}

func TestTokenizerDeterministic(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	text := "we went to the beach and the water was great"

	first := tokenizer.Tokenize(text)
	for i := 0; i < 5; i++ {
		if got := tokenizer.Tokenize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestStemJoined(t *testing.T) {
	s := NewStemmer()

	got := s.StemJoined([]string{"running", "cats", "connections"})
	if got != "run cat connect" {
		t.Errorf("StemJoined = %q", got)
	}
	if s.StemJoined(nil) != "" {
		t.Error("no tokens should stem to an empty string")
	}
}
