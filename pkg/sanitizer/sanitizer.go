package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

const MaxNameLength = 100

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}
	return result.String()
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(max int) Strategy {
	return func(s string) string {
		runes := []rune(s)
		if len(runes) <= max {
			return s
		}
		return strings.TrimSpace(string(runes[:max]))
	}
}

func NormalizeGuestName(name string) string {
	return Pipeline{
		stripControl,
		TrimAndNormalize,
		truncateRunes(MaxNameLength),
	}.Apply(name)
}

var genderAliases = map[string]string{
	"M":      "MALE",
	"F":      "FEMALE",
	"O":      "OTHER",
	"MAN":    "MALE",
	"WOMAN":  "FEMALE",
	"MALE":   "MALE",
	"FEMALE": "FEMALE",
	"OTHER":  "OTHER",
}

// NormalizeGender returns MALE, FEMALE or OTHER for known spellings, and the
// upper-cased input otherwise.
func NormalizeGender(gender string) string {
	g := strings.ToUpper(strings.TrimSpace(gender))
	if canonical, ok := genderAliases[g]; ok {
		return canonical
	}
	return g
}

func NormalizeCity(city string) string {
	return strings.ToLower(TrimAndNormalize(city))
}
