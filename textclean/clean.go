// Package textclean normalizes raw knowledge-base text before it is chunked
// or sent to an embedding model.
package textclean

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// invisible covers zero-width characters, directional marks, line/paragraph
// separators, narrow spaces, invisible operators and the byte order mark.
var invisible = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200b, Hi: 0x200f, Stride: 1},
		{Lo: 0x2028, Hi: 0x202f, Stride: 1},
		{Lo: 0x205f, Hi: 0x206f, Stride: 1},
		{Lo: 0xfeff, Hi: 0xfeff, Stride: 1},
	},
}

var quotes = strings.NewReplacer(
	"「", `"`,
	"」", `"`,
	"『", `"`,
	"』", `"`,
)

// Clean removes invisible characters, maps CJK corner brackets to ASCII
// double quotes, collapses whitespace runs to a single space and trims.
//
// Clean is idempotent and never makes its input longer.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	stripped, _, err := transform.String(runes.Remove(runes.In(invisible)), text)
	if err != nil {
		stripped = strings.Map(func(r rune) rune {
			if unicode.Is(invisible, r) {
				return -1
			}
			return r
		}, text)
	}
	stripped = quotes.Replace(stripped)
	return strings.Join(strings.Fields(stripped), " ")
}

// Truncate returns the first limit runes of text. A non-positive limit
// returns text unchanged.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

// Halve returns the first half of text measured in runes, so multi-byte
// characters are never split.
func Halve(text string) string {
	half := Len(text) / 2
	if half == 0 {
		return ""
	}
	return Truncate(text, half)
}

// Len returns the number of runes in text.
func Len(text string) int {
	return utf8.RuneCountInString(text)
}
