package bot

import (
	"fmt"
	"strings"

	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

const (
	stateOn  = "on"
	stateOff = "off"
)

// FormatRelay formats a filtered line for the relay chat. The quantity
// marker is rendered as plain text; the rest of the line is sent as typed.
func FormatRelay(m filter.Marker, author, text string) string {
	body := m.Plain(text)
	if author == "" {
		return body
	}
	return author + ": " + body
}

// FormatSettings formats the settings of a chat for display.
func FormatSettings(s model.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settings for chat %d:\n\n", s.ChatID)
	fmt.Fprintf(&b, "Mode: %s\n", modeLabel(s.Mode))
	fmt.Fprintf(&b, "Words: %s\n", listSummary(s.FilteredWords, ","))
	fmt.Fprintf(&b, "Regex: %s\n", listSummary(s.FilteredRegex, "\n"))
	fmt.Fprintf(&b, "Names: %s\n\n", listSummary(s.FilteredNames, "\n"))
	for _, f := range settingFlags {
		fmt.Fprintf(&b, "%s (%s): %s\n", f.label, f.name, onOff(*f.field(&s)))
	}
	fmt.Fprintf(&b, "\nMax repeats in public chat: %d\n", s.MaxRepeatedPublicChats)
	fmt.Fprintf(&b, "Count color: %s", s.CountColor)
	return b.String()
}

// FormatRuleList formats one rule list of a chat.
func FormatRuleList(kind filter.RuleKind, blob string) string {
	sep := "\n"
	if kind == filter.KindWord {
		sep = ","
	}
	var items []string
	for _, it := range strings.Split(blob, sep) {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return fmt.Sprintf("No %s rules.", kind)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s rules (%d):\n", kindLabel(kind), len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "  %s\n", it)
	}
	return b.String()
}

// FormatRoster formats the friend and clan lists of a chat.
func FormatRoster(members []model.Member) string {
	if len(members) == 0 {
		return "The roster is empty. Use /friend or /clan to add names."
	}
	var friends, clan []string
	for _, m := range members {
		switch m.Relation {
		case model.RelationFriend:
			friends = append(friends, m.Name)
		case model.RelationClan:
			clan = append(clan, m.Name)
		}
	}
	var b strings.Builder
	writeGroup(&b, "Friends", friends)
	writeGroup(&b, "Clan", clan)
	return strings.TrimRight(b.String(), "\n")
}

func writeGroup(b *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(names))
	for _, n := range names {
		fmt.Fprintf(b, "  %s\n", n)
	}
	b.WriteString("\n")
}

func modeLabel(m model.FilterMode) string {
	switch m {
	case model.ModeMask:
		return "mask (censor words)"
	case model.ModeReplace:
		return "replace (censor message)"
	case model.ModeSuppress:
		return "remove (remove message)"
	default:
		return m.String()
	}
}

func kindLabel(k filter.RuleKind) string {
	switch k {
	case filter.KindWord:
		return "Word"
	case filter.KindName:
		return "Name"
	default:
		return "Regex"
	}
}

func listSummary(blob, sep string) string {
	n := 0
	for _, it := range strings.Split(blob, sep) {
		if strings.TrimSpace(it) != "" {
			n++
		}
	}
	if n == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", n)
}

func onOff(v bool) string {
	if v {
		return stateOn
	}
	return stateOff
}
