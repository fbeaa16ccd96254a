package config

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"chat_filter/internal/model"
)

var colorPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// ValidCountColor reports whether c is a six digit hex RGB value.
func ValidCountColor(c string) bool {
	return colorPattern.MatchString(c)
}

// SettingsFile is the document form of model.Settings shared by the TOML
// defaults file and the YAML export. Rule lists are one entry per item.
type SettingsFile struct {
	Mode  string   `toml:"mode" yaml:"mode"`
	Words []string `toml:"words" yaml:"words,omitempty"`
	Regex []string `toml:"regex" yaml:"regex,omitempty"`
	Names []string `toml:"names" yaml:"names,omitempty"`

	FilterFriends bool `toml:"filter_friends" yaml:"filter_friends"`
	FilterClan    bool `toml:"filter_clan" yaml:"filter_clan"`
	FilterLogin   bool `toml:"filter_login" yaml:"filter_login"`

	CollapseGameChat       bool   `toml:"collapse_game_chat" yaml:"collapse_game_chat"`
	CollapsePlayerChat     bool   `toml:"collapse_player_chat" yaml:"collapse_player_chat"`
	MaxRepeatedPublicChats int    `toml:"max_repeated_public_chats" yaml:"max_repeated_public_chats"`
	CollapseWindow         bool   `toml:"collapse_window" yaml:"collapse_window"`
	MatchCompacted         bool   `toml:"match_compacted" yaml:"match_compacted"`
	CountColor             string `toml:"count_color" yaml:"count_color"`

	Friends []string `toml:"friends" yaml:"friends,omitempty"`
	Clan    []string `toml:"clan" yaml:"clan,omitempty"`
}

// NewSettingsFile converts settings and roster into their document form.
func NewSettingsFile(s model.Settings, members []model.Member) SettingsFile {
	f := SettingsFile{
		Mode:                   s.Mode.String(),
		Words:                  splitList(s.FilteredWords, ","),
		Regex:                  splitList(s.FilteredRegex, "\n"),
		Names:                  splitList(s.FilteredNames, "\n"),
		FilterFriends:          s.FilterFriends,
		FilterClan:             s.FilterClan,
		FilterLogin:            s.FilterLogin,
		CollapseGameChat:       s.CollapseGameChat,
		CollapsePlayerChat:     s.CollapsePlayerChat,
		MaxRepeatedPublicChats: s.MaxRepeatedPublicChats,
		CollapseWindow:         s.CollapseWindow,
		MatchCompacted:         s.MatchCompacted,
		CountColor:             s.CountColor,
	}
	for _, m := range members {
		switch m.Relation {
		case model.RelationFriend:
			f.Friends = append(f.Friends, m.Name)
		case model.RelationClan:
			f.Clan = append(f.Clan, m.Name)
		}
	}
	return f
}

// Settings validates the document and converts it for chatID.
// An empty mode or color selects the default.
func (f SettingsFile) Settings(chatID int64) (model.Settings, error) {
	s := model.DefaultSettings(chatID)

	if f.Mode != "" {
		m, ok := model.ParseFilterMode(f.Mode)
		if !ok {
			return s, fmt.Errorf("unknown mode %q", f.Mode)
		}
		s.Mode = m
	}
	if f.CountColor != "" {
		if !ValidCountColor(f.CountColor) {
			return s, fmt.Errorf("invalid count color %q, want six hex digits", f.CountColor)
		}
		s.CountColor = strings.ToLower(f.CountColor)
	}
	if f.MaxRepeatedPublicChats < 0 {
		return s, fmt.Errorf("max_repeated_public_chats must not be negative")
	}
	for _, w := range f.Words {
		if strings.Contains(w, ",") {
			return s, fmt.Errorf("word %q must not contain a comma", w)
		}
	}

	s.FilteredWords = joinList(f.Words, ",")
	s.FilteredRegex = joinList(f.Regex, "\n")
	s.FilteredNames = joinList(f.Names, "\n")
	s.FilterFriends = f.FilterFriends
	s.FilterClan = f.FilterClan
	s.FilterLogin = f.FilterLogin
	s.CollapseGameChat = f.CollapseGameChat
	s.CollapsePlayerChat = f.CollapsePlayerChat
	s.MaxRepeatedPublicChats = f.MaxRepeatedPublicChats
	s.CollapseWindow = f.CollapseWindow
	s.MatchCompacted = f.MatchCompacted
	return s, nil
}

// Members returns the roster entries of the document for chatID.
func (f SettingsFile) Members(chatID int64) []model.Member {
	var out []model.Member
	for _, n := range f.Friends {
		out = append(out, model.Member{ChatID: chatID, Name: n, Relation: model.RelationFriend})
	}
	for _, n := range f.Clan {
		out = append(out, model.Member{ChatID: chatID, Name: n, Relation: model.RelationClan})
	}
	return out
}

// LoadDefaults reads the TOML defaults file. Unknown keys are rejected.
// The returned settings carry a zero ChatID.
func LoadDefaults(path string) (model.Settings, error) {
	var f SettingsFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return model.Settings{}, fmt.Errorf("decode defaults %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return model.Settings{}, fmt.Errorf("decode defaults %s: unknown key %q", path, undecoded[0].String())
	}
	if len(f.Friends) > 0 || len(f.Clan) > 0 {
		return model.Settings{}, errors.New("defaults must not list friends or clan members")
	}
	s, err := f.Settings(0)
	if err != nil {
		return model.Settings{}, fmt.Errorf("defaults %s: %w", path, err)
	}
	return s, nil
}

// ExportYAML renders settings and roster as a YAML document.
func ExportYAML(s model.Settings, members []model.Member) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewSettingsFile(s, members)); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportYAML parses a document produced by ExportYAML. Unknown fields are
// rejected.
func ImportYAML(data []byte, chatID int64) (model.Settings, []model.Member, error) {
	var f SettingsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return model.Settings{}, nil, fmt.Errorf("decode settings: %w", err)
	}
	s, err := f.Settings(chatID)
	if err != nil {
		return model.Settings{}, nil, err
	}
	return s, f.Members(chatID), nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinList(items []string, sep string) string {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	return strings.Join(kept, sep)
}
