// Package model defines the domain types used across the application.
package model

import "time"

// MessageType is the category of a chat message.
type MessageType string

// Supported message types.
const (
	TypePublic      MessageType = "public"
	TypeMod         MessageType = "mod"
	TypeAutotyper   MessageType = "autotyper"
	TypePrivate     MessageType = "private"
	TypeLoginLogout MessageType = "login_logout"
	TypeGame        MessageType = "game"
	TypeSpam        MessageType = "spam"
	TypeEngine      MessageType = "engine"
)

// IsPlayerChat reports whether messages of this type are written by people
// and therefore subject to censorship.
func (t MessageType) IsPlayerChat() bool {
	switch t {
	case TypePublic, TypeMod, TypeAutotyper, TypePrivate:
		return true
	}
	return false
}

// IsPublicChat reports whether the type is public or moderator chat.
func (t MessageType) IsPublicChat() bool {
	return t == TypePublic || t == TypeMod
}

// IsCollapsible reports whether repeated messages of this type may be
// collapsed into a single line with a quantity marker.
func (t MessageType) IsCollapsible() bool {
	switch t {
	case TypeEngine, TypeGame, TypeSpam, TypePublic, TypeMod:
		return true
	}
	return false
}

// Message is a single incoming chat message.
// An empty Author marks a system message.
type Message struct {
	ID     int64
	ChatID int64
	Type   MessageType
	Author string
	Text   string
}

// Line is a message as currently displayed in a chat panel.
// Value may carry markup and a quantity marker.
type Line struct {
	ID     int64
	Type   MessageType
	Sender string
	Author string
	Value  string
}

// FilterMode controls what a content or name match produces.
type FilterMode int

// Supported filter modes.
const (
	ModeMask FilterMode = iota
	ModeReplace
	ModeSuppress
)

// String returns the persisted name of the mode.
func (m FilterMode) String() string {
	switch m {
	case ModeMask:
		return "censor_words"
	case ModeReplace:
		return "censor_message"
	case ModeSuppress:
		return "remove_message"
	default:
		return "unknown"
	}
}

// ParseFilterMode converts a persisted or user-supplied name into a FilterMode.
func ParseFilterMode(s string) (FilterMode, bool) {
	switch s {
	case "censor_words", "mask":
		return ModeMask, true
	case "censor_message", "replace":
		return ModeReplace, true
	case "remove_message", "remove":
		return ModeSuppress, true
	}
	return 0, false
}

// Settings holds the filter configuration of one source chat.
type Settings struct {
	ChatID int64

	FilteredWords string
	FilteredRegex string
	FilteredNames string
	Mode          FilterMode

	FilterFriends bool
	FilterClan    bool
	FilterLogin   bool

	CollapseGameChat       bool
	CollapsePlayerChat     bool
	MaxRepeatedPublicChats int
	CollapseWindow         bool
	MatchCompacted         bool
	CountColor             string

	UpdatedAt time.Time
}

// DefaultCountColor is the quantity marker color used when none is configured.
const DefaultCountColor = "ff0000"

// DefaultSettings returns the settings applied to chats without stored configuration.
func DefaultSettings(chatID int64) Settings {
	return Settings{
		ChatID:     chatID,
		Mode:       ModeMask,
		CountColor: DefaultCountColor,
	}
}

// Relation is the kind of roster membership.
type Relation string

// Supported roster relations.
const (
	RelationFriend Relation = "friend"
	RelationClan   Relation = "clan"
)

// Member is a roster entry exempting a name from filtering unless the
// matching filter flag is set.
type Member struct {
	ID        int64
	ChatID    int64
	Name      string
	Relation  Relation
	CreatedAt time.Time
}
