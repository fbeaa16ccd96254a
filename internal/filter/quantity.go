package filter

import (
	"strconv"
	"strings"
)

const (
	quantityPrefix  = " x "
	closingColorTag = "</col>"

	// DefaultQuantity is the count of a text without a marker.
	DefaultQuantity = 1
)

// Marker encodes a running repeat count as a trailing colored " x N".
type Marker struct {
	// Color is a six digit hex RGB value.
	Color string
}

func (m Marker) colorTag() string {
	return "<col=" + m.Color + ">"
}

// terminator is an empty marker. It ends a single-count text that would
// otherwise read as carrying a marker.
func (m Marker) terminator() string {
	return m.colorTag() + closingColorTag
}

// Append adds the quantity marker for count to base. Counts of one or less
// leave base unchanged unless base already ends like a marker, in which case
// the empty marker is added so Strip returns base intact.
func (m Marker) Append(base string, count int) string {
	if count > DefaultQuantity {
		return base + m.colorTag() + quantityPrefix + strconv.Itoa(count)
	}
	if b, _ := m.Strip(base); b == base {
		return base
	}
	return base + m.terminator()
}

// Strip splits text into its base and quantity. Texts produced by Append
// are recognised as well as the legacy form ending in a closing color tag.
func (m Marker) Strip(text string) (string, int) {
	if base, ok := strings.CutSuffix(text, m.terminator()); ok {
		return base, DefaultQuantity
	}
	prefix := m.colorTag() + quantityPrefix
	start := strings.LastIndex(text, prefix)
	if start < 0 {
		return text, DefaultQuantity
	}
	digits := strings.TrimSuffix(text[start+len(prefix):], closingColorTag)
	n, err := strconv.Atoi(digits)
	if err != nil || n <= DefaultQuantity || strconv.Itoa(n) != digits {
		return text, DefaultQuantity
	}
	return text[:start], n
}

// Quantity returns the count carried by text's marker, or DefaultQuantity.
func (m Marker) Quantity(text string) int {
	_, n := m.Strip(text)
	return n
}

// AddQuantity increments the marker of text by one.
func (m Marker) AddQuantity(text string) string {
	base, count := m.Strip(text)
	return m.Append(base, count+1)
}

// Plain renders text without marker markup: a count above one becomes a
// plain " x N" suffix. Other tags in text are kept.
func (m Marker) Plain(text string) string {
	base, count := m.Strip(text)
	if count <= DefaultQuantity {
		return base
	}
	return base + quantityPrefix + strconv.Itoa(count)
}
