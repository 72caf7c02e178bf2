package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes name safe to use as a single path element. Separators
// and colons become dashes, shell-hostile characters and control runes are
// dropped, and surrounding whitespace is trimmed.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
}

// SanitizeToken lowercases value into a compact [a-z0-9_-] token for
// temporary directory prefixes. Accented letters are reduced to their base
// letter; anything else collapses to one underscore. Empty input yields
// "speaker".
func SanitizeToken(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range foldAccents(strings.ToLower(strings.TrimSpace(value))) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "speaker"
	}
	return out
}

// foldAccents strips combining marks after canonical decomposition.
func foldAccents(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		return value
	}
	return folded
}
