package bot

import (
	"fmt"
	"strconv"
	"strings"

	"chat_filter/internal/config"
	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

// maxRepeatLimit bounds /maxrepeat.
const maxRepeatLimit = 1000

// settingFlag is a boolean chat setting addressable by /set and the
// settings keyboard.
type settingFlag struct {
	name  string
	label string
	field func(*model.Settings) *bool
}

var settingFlags = []settingFlag{
	{"friends", "Filter friends", func(s *model.Settings) *bool { return &s.FilterFriends }},
	{"clan", "Filter clan", func(s *model.Settings) *bool { return &s.FilterClan }},
	{"login", "Hide joins", func(s *model.Settings) *bool { return &s.FilterLogin }},
	{"game", "Collapse notices", func(s *model.Settings) *bool { return &s.CollapseGameChat }},
	{"player", "Collapse chat", func(s *model.Settings) *bool { return &s.CollapsePlayerChat }},
	{"window", "Collapse window", func(s *model.Settings) *bool { return &s.CollapseWindow }},
	{"compact", "Match compacted", func(s *model.Settings) *bool { return &s.MatchCompacted }},
}

func lookupFlag(name string) (settingFlag, bool) {
	for _, f := range settingFlags {
		if f.name == name {
			return f, true
		}
	}
	return settingFlag{}, false
}

func flagNames() string {
	names := make([]string, len(settingFlags))
	for i, f := range settingFlags {
		names[i] = f.name
	}
	return strings.Join(names, ", ")
}

// ParseSetArgs parses "<flag> <on|off>".
func ParseSetArgs(args string) (string, bool, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "", false, fmt.Errorf("usage: /set <flag> <on|off>, flags: %s", flagNames())
	}
	if _, ok := lookupFlag(parts[0]); !ok {
		return "", false, fmt.Errorf("unknown flag %q, use: %s", parts[0], flagNames())
	}
	switch strings.ToLower(parts[1]) {
	case "on", "true", "yes", "1":
		return parts[0], true, nil
	case "off", "false", "no", "0":
		return parts[0], false, nil
	}
	return "", false, fmt.Errorf("invalid value %q, use: on, off", parts[1])
}

// ParseMaxRepeat parses the number of repeats allowed before collapsing.
func ParseMaxRepeat(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 0 || n > maxRepeatLimit {
		return 0, fmt.Errorf("max repeats must be between 0 and %d", maxRepeatLimit)
	}
	return n, nil
}

// ParseColor parses a six digit hex color.
func ParseColor(args string) (string, error) {
	c := strings.TrimPrefix(strings.TrimSpace(args), "#")
	if !config.ValidCountColor(c) {
		return "", fmt.Errorf("invalid color %q, use six hex digits like ff0000", args)
	}
	return strings.ToLower(c), nil
}

// ParseMode parses a filter mode name.
func ParseMode(args string) (model.FilterMode, error) {
	m, ok := model.ParseFilterMode(strings.TrimSpace(args))
	if !ok {
		return 0, fmt.Errorf("invalid mode %q, use: mask, replace, remove", args)
	}
	return m, nil
}

// ParseName standardizes a roster name argument.
func ParseName(args string) (string, error) {
	name := filter.Standardize(args)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	return name, nil
}

// ParseRuleList turns command arguments into a rule blob of the given kind.
// Words are split on commas or newlines, patterns on newlines. A single "-"
// clears the list.
func ParseRuleList(kind filter.RuleKind, args string) string {
	if strings.TrimSpace(args) == "-" {
		return ""
	}
	sep := "\n"
	fields := strings.Split(args, "\n")
	if kind == filter.KindWord {
		sep = ","
		fields = strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == '\n' })
	}
	var kept []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, sep)
}

// InvalidPatterns returns the entries of a pattern blob that do not compile.
func InvalidPatterns(blob string) []string {
	var bad []string
	for _, p := range strings.Split(blob, "\n") {
		if p == "" {
			continue
		}
		if err := filter.ValidatePattern(p); err != nil {
			bad = append(bad, p)
		}
	}
	return bad
}

func ruleField(s *model.Settings, kind filter.RuleKind) *string {
	switch kind {
	case filter.KindWord:
		return &s.FilteredWords
	case filter.KindName:
		return &s.FilteredNames
	default:
		return &s.FilteredRegex
	}
}
