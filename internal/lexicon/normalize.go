package lexicon

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a word for lookup and matching: surrounding space is
// trimmed, the text is put in NFC and lower-cased. Lower-casing keeps
// characters such as ß intact, which full case folding would expand.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}
