// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var separatorExpr = regexp.MustCompile(`[^a-z0-9]+`)

// Make returns the lowercase, hyphen-separated form of s. Accented letters are
// folded to their base letter; every other run of non-alphanumerics becomes a
// single hyphen.
func Make(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	lowered := strings.ToLower(folded)
	return strings.Trim(separatorExpr.ReplaceAllString(lowered, "-"), "-")
}
