package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// urlPattern matches http(s) and www. links up to the next whitespace.
var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s\p{Z}]+`)

// emoji covers pictographic blocks plus the joiners, selectors and modifiers
// that glue emoji sequences together. ASCII digits, '#' and '*' are not included
// even though they may start a keycap sequence, and neither are the dingbat
// circled digits U+2776-U+2793.
var emoji = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x20e3, Hi: 0x20e3, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x2199, Stride: 1},
		{Lo: 0x21a9, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x231b, Stride: 1},
		{Lo: 0x2328, Hi: 0x2328, Stride: 1},
		{Lo: 0x23cf, Hi: 0x23cf, Stride: 1},
		{Lo: 0x23e9, Hi: 0x23f3, Stride: 1},
		{Lo: 0x23f8, Hi: 0x23fa, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25ab, Stride: 1},
		{Lo: 0x25b6, Hi: 0x25b6, Stride: 1},
		{Lo: 0x25c0, Hi: 0x25c0, Stride: 1},
		{Lo: 0x25fb, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x2775, Stride: 1},
		{Lo: 0x2794, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b07, Stride: 1},
		{Lo: 0x2b1b, Hi: 0x2b1c, Stride: 1},
		{Lo: 0x2b50, Hi: 0x2b50, Stride: 1},
		{Lo: 0x2b55, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3297, Stride: 1},
		{Lo: 0x3299, Hi: 0x3299, Stride: 1},
		{Lo: 0xfe0e, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
		{Lo: 0xe0020, Hi: 0xe007f, Stride: 1},
	},
}

// IsEmoji reports whether r is stripped as an emoji code point.
func IsEmoji(r rune) bool {
	return unicode.Is(emoji, r)
}

// Normalize cleans raw message text. The steps run in a fixed order:
//  1. NFC composition
//  2. URLs replaced by a space
//  3. emoji replaced by a space
//  4. anything that is not a letter, number, mark or whitespace replaced by a space;
//     upper-case letters without a lower-case form become their compatibility
//     equivalent, or a space when that has none either
//  5. whitespace runs collapsed, ends trimmed
//  6. lower-casing
//
// Normalize is pure; empty input yields empty output.
func Normalize(text string) string {
	return strings.ToLower(NormalizeCased(text))
}

// NormalizeCased runs steps 1-5 of Normalize and keeps the original casing.
// Its output has the same runes as Normalize's up to case, so rune offsets
// computed against one are valid against the other.
func NormalizeCased(text string) string {
	if text == "" {
		return ""
	}

	s := norm.NFC.String(text)
	s = urlPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if IsEmoji(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return lowerable(r)
		}
		if unicode.IsNumber(r) || unicode.IsMark(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// lowerable returns r unless it is an upper-case letter that ToLower leaves
// upper-case, such as U+03D2 or the mathematical alphanumerics.
func lowerable(r rune) rune {
	if !unicode.IsUpper(r) || !unicode.IsUpper(unicode.ToLower(r)) {
		return r
	}
	if k := []rune(norm.NFKC.String(string(r))); len(k) == 1 && !unicode.IsUpper(unicode.ToLower(k[0])) {
		return k[0]
	}
	return ' '
}
