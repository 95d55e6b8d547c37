package excel

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sanitizer normalizes to NFC and strips control characters (newlines
// survive, multi-line remarks are legal form input).
var sanitizer = transform.Chain(
	norm.NFC,
	runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsControl(r) && r != '\n'
	})),
)

// sanitizeString removes invalid and unencodable code points from an
// extracted value before it is stored.
func sanitizeString(s string) string {
	s = strings.ToValidUTF8(s, "")
	out, _, err := transform.String(sanitizer, s)
	if err != nil {
		return s
	}
	return out
}
