package ingest

import "github.com/abadojack/whatlanggo"

// Language is the outcome of language identification.
// An empty Code means the language is unknown.
type Language struct {
	Code       string  // ISO 639-3, e.g. "eng"
	Confidence float64 // 0..1
}

// Known reports whether a language was detected.
func (l Language) Known() bool {
	return l.Code != ""
}

// LanguageIdentifier tags raw text with a language. It never fails:
// an undetectable language is reported as unknown.
type LanguageIdentifier interface {
	Identify(text string) Language
}

// WhatlangIdentifier identifies languages with trigram profiles.
type WhatlangIdentifier struct{}

// Identify implements LanguageIdentifier.
func (WhatlangIdentifier) Identify(text string) Language {
	info := whatlanggo.Detect(text)
	if info.Script == nil {
		return Language{}
	}
	return Language{Code: info.Lang.Iso6393(), Confidence: info.Confidence}
}
