// Package filter implements the chat message filtering engine: rule
// compilation, author eligibility, censorship and duplicate collapsing.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind identifies the source list a rule was compiled from.
type RuleKind string

// Supported rule kinds.
const (
	KindWord  RuleKind = "word"
	KindRegex RuleKind = "regex"
	KindName  RuleKind = "name"
)

// Rule is a compiled case-insensitive matcher.
type Rule struct {
	Kind    RuleKind
	Source  string
	Pattern *regexp.Regexp
}

// RuleSet is the compiled form of all rule sources. It is never mutated
// after Compile returns; reconfiguration builds a new one.
type RuleSet struct {
	Content []Rule
	Names   []Rule
}

// Sources holds the raw rule text as configured by the user.
// Words are comma separated, Regex and Names are newline separated.
type Sources struct {
	Words string
	Regex string
	Names string
}

// Merge appends the entries of other after the entries of s.
func (s Sources) Merge(other Sources) Sources {
	return Sources{
		Words: joinNonEmpty(s.Words, other.Words, ","),
		Regex: joinNonEmpty(s.Regex, other.Regex, "\n"),
		Names: joinNonEmpty(s.Names, other.Names, "\n"),
	}
}

// InvalidPatternError reports a rule entry that failed to compile.
type InvalidPatternError struct {
	Kind    RuleKind
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Compile turns rule sources into a RuleSet. Invalid entries are skipped and
// reported in the returned slice; they never abort compilation of the rest.
func Compile(src Sources) (*RuleSet, []error) {
	var (
		rs   RuleSet
		errs []error
	)

	for _, w := range splitEntries(src.Words, ",") {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(w))
		rs.Content = append(rs.Content, Rule{Kind: KindWord, Source: w, Pattern: re})
	}

	for _, p := range splitEntries(src.Regex, "\n") {
		r, err := compileRule(KindRegex, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rs.Content = append(rs.Content, r)
	}

	for _, p := range splitEntries(src.Names, "\n") {
		r, err := compileRule(KindName, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rs.Names = append(rs.Names, r)
	}

	return &rs, errs
}

// ValidatePattern checks whether a regex or name entry would compile.
func ValidatePattern(pattern string) error {
	if _, err := regexp.Compile("(?i)" + pattern); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}

func compileRule(kind RuleKind, pattern string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, &InvalidPatternError{Kind: kind, Pattern: pattern, Err: err}
	}
	return Rule{Kind: kind, Source: pattern, Pattern: re}, nil
}

func splitEntries(blob, sep string) []string {
	var out []string
	for _, s := range strings.Split(blob, sep) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case strings.TrimSpace(a) == "":
		return b
	case strings.TrimSpace(b) == "":
		return a
	}
	return a + sep + b
}
