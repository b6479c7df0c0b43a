package gen

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacritics strips combining marks after canonical decomposition.
var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// pascal converts an alias or display name to an exported Go identifier.
// Diacritics are removed, anything but letters and digits separates words,
// and names that would not start with an upper-case letter get an "X"
// prefix. It returns "" when nothing usable remains.
func pascal(s string) string {
	s, _, err := transform.String(diacritics, s)
	if err != nil {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	if strings.TrimSpace(s) == "" {
		return ""
	}
	name := inflect.Camelize(s)
	if r := []rune(name)[0]; !unicode.IsUpper(r) {
		name = "X" + name
	}
	if !token.IsIdentifier(name) {
		return ""
	}
	return name
}

// snake converts a Go identifier to snake_case.
// Acronyms stay together: "HTTPCode" becomes "http_code".
func snake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			next := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (next && unicode.IsUpper(prev)) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
