package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	alt3  string   // ISO 639-2/B alternate (e.g. "fre" vs "fra")
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "", []string{"english", "anglais"}},
	{"es", "", []string{"spanish", "espagnol", "español"}},
	{"fr", "fre", []string{"french", "français", "francais"}},
	{"de", "ger", []string{"german", "allemand", "deutsch"}},
	{"it", "", []string{"italian", "italien"}},
	{"pt", "", []string{"portuguese", "portugais"}},
	{"ja", "", []string{"japanese"}},
	{"ko", "", []string{"korean"}},
	{"zh", "chi", []string{"chinese"}},
	{"ru", "", []string{"russian"}},
	{"ar", "", []string{"arabic"}},
	{"hi", "", []string{"hindi"}},
	{"nl", "dut", []string{"dutch"}},
	{"pl", "", []string{"polish"}},
	{"sr", "scc", []string{"serbian"}},
	{"hr", "scr", []string{"croatian"}},
}

var aliases map[string]string

func init() {
	aliases = make(map[string]string, len(languages)*3)
	for _, e := range languages {
		if e.alt3 != "" {
			aliases[e.alt3] = e.code2
		}
		for _, w := range e.words {
			aliases[w] = e.code2
		}
	}
}

// Parse resolves input to a BCP 47 tag.
func Parse(input string) (language.Tag, error) {
	code := strings.ToLower(strings.TrimSpace(input))
	if code == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	if mapped, ok := aliases[code]; ok {
		code = mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("parse language %q: %w", input, err)
	}
	return tag, nil
}

// Normalize returns the canonical BCP 47 string for input, e.g. "fr" or "pt-BR".
func Normalize(input string) (string, error) {
	tag, err := Parse(input)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// ToISO2 converts any recognized language code or word to its base language
// code, which is ISO 639-1 when one exists. Returns "" for unrecognized input.
func ToISO2(input string) string {
	tag, err := Parse(input)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// DisplayName returns the English name of a language, e.g. "French" or
// "Brazilian Portuguese". Unknown input is returned uppercased.
func DisplayName(input string) string {
	if strings.TrimSpace(input) == "" {
		return "Unknown"
	}
	tag, err := Parse(input)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(input))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(input))
}
