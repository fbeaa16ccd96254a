package filter

import (
	"regexp"
	"strings"
	"unicode"
)

const nbsp = '\u00a0'

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	nonWordPattern = regexp.MustCompile(`\W`)
)

// Normalize drops runes outside the printable set and turns non-breaking
// spaces into ordinary ones. Control and format runes (zero-width joiners,
// direction marks) are not printable.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsGraphic(r) {
			continue
		}
		if r == nbsp {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Standardize prepares a display name for name-pattern matching.
func Standardize(name string) string {
	name = RemoveTags(name)
	name = strings.Map(func(r rune) rune {
		if r == nbsp || r == '_' {
			return ' '
		}
		return r
	}, name)
	return strings.ToLower(strings.TrimSpace(name))
}

// RemoveTags strips <...> markup.
func RemoveTags(text string) string {
	return tagPattern.ReplaceAllString(text, "")
}

func compact(text string) string {
	return nonWordPattern.ReplaceAllString(text, "")
}

func mask(s string) string {
	return strings.Repeat(string(MaskChar), len([]rune(s)))
}
