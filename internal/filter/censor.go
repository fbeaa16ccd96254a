package filter

import (
	"strings"

	"chat_filter/internal/model"
)

// CensorMessage replaces the whole message in ModeReplace.
const CensorMessage = "Hey, everyone, I just tried to say something very silly!"

// MaskChar replaces every masked rune.
const MaskChar = '*'

// Action is the outcome of censoring a message.
type Action int

// Supported actions.
const (
	ActionPass Action = iota
	ActionRewrite
	ActionBlock
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionRewrite:
		return "rewrite"
	case ActionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Verdict is the result of Censor. Text is empty for ActionBlock.
type Verdict struct {
	Action Action
	Text   string
}

// Options tunes Censor beyond the filter mode.
type Options struct {
	// MatchCompacted retries content rules against the message with all
	// non-word runes removed. Ignored in ModeMask.
	MatchCompacted bool
}

// Censor applies name and content rules to a message.
// A name match short-circuits before content rules run. When nothing
// matches, the raw message is returned untouched.
func Censor(author, raw string, rules *RuleSet, mode model.FilterMode, opts Options) Verdict {
	if rules == nil {
		return Verdict{Action: ActionPass, Text: raw}
	}

	text := Normalize(raw)

	if author != "" && authorMatches(author, rules.Names) {
		switch mode {
		case model.ModeMask:
			return Verdict{Action: ActionRewrite, Text: mask(text)}
		case model.ModeReplace:
			return Verdict{Action: ActionRewrite, Text: CensorMessage}
		case model.ModeSuppress:
			return Verdict{Action: ActionBlock}
		default:
			return Verdict{Action: ActionBlock}
		}
	}

	filtered := false
	for _, r := range rules.Content {
		if !r.Pattern.MatchString(text) {
			continue
		}
		switch mode {
		case model.ModeMask:
			text = r.Pattern.ReplaceAllStringFunc(text, mask)
			filtered = true
		case model.ModeReplace:
			return Verdict{Action: ActionRewrite, Text: CensorMessage}
		case model.ModeSuppress:
			return Verdict{Action: ActionBlock}
		default:
			return Verdict{Action: ActionBlock}
		}
	}

	if filtered {
		return Verdict{Action: ActionRewrite, Text: text}
	}

	if opts.MatchCompacted && mode != model.ModeMask {
		if v, ok := censorCompacted(text, rules, mode); ok {
			return v
		}
	}

	return Verdict{Action: ActionPass, Text: raw}
}

func censorCompacted(text string, rules *RuleSet, mode model.FilterMode) (Verdict, bool) {
	c := compact(text)
	if c == text {
		return Verdict{}, false
	}
	for _, r := range rules.Content {
		if !r.Pattern.MatchString(c) {
			continue
		}
		if mode == model.ModeReplace {
			return Verdict{Action: ActionRewrite, Text: CensorMessage}, true
		}
		return Verdict{Action: ActionBlock}, true
	}
	return Verdict{}, false
}

// authorMatches tries the standardized display name and the username as
// typed, so patterns may use either spaces or underscores.
func authorMatches(author string, rules []Rule) bool {
	return matchesName(Standardize(author), rules) ||
		matchesName(strings.TrimSpace(RemoveTags(author)), rules)
}

func matchesName(name string, rules []Rule) bool {
	for _, r := range rules {
		if r.Pattern.MatchString(name) {
			return true
		}
	}
	return false
}
