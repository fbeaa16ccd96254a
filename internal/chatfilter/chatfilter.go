// Package chatfilter wires the filter engine into the two places messages
// are shown: chat lines and overhead text. It owns the compiled rules, the
// current settings and the duplicate tracker of one chat.
package chatfilter

import (
	"io"
	"log/slog"
	"sync/atomic"

	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

// Roster answers friend and clan membership for an author name.
type Roster interface {
	IsFriend(name string) bool
	IsClanMember(name string) bool
}

// Recorder receives filter outcomes for metrics.
type Recorder interface {
	Verdict(action filter.Action)
	Collapsed()
	InvalidRules(n int)
	RuleCount(content, names int)
}

// Deps are the collaborators of a Filter. Every field is optional.
// Refresh asks the host to re-render its visible lines.
type Deps struct {
	Roster    Roster
	LocalName func() string
	Refresh   func()
	Log       *slog.Logger
	Recorder  Recorder
}

// Decision is the outcome of filtering one chat line.
type Decision struct {
	Block bool
	Text  string
	Count int
}

// Filter applies one chat's rules and settings.
//
// Rule and settings swaps are atomic, so a filtering pass never sees a
// half-updated rule set. The duplicate tracker is not synchronised; calls
// to FilterChatLine, FilterOverheadText and Handle must come from one
// goroutine.
type Filter struct {
	rules    atomic.Pointer[filter.RuleSet]
	settings atomic.Pointer[model.Settings]
	external atomic.Pointer[filter.Sources]

	tracker   *filter.Tracker
	roster    Roster
	localName func() string
	refresh   func()
	log       *slog.Logger
	rec       Recorder
	dispatch  map[EventKind]func(Event)
}

// New returns a Filter with rules compiled from settings.
func New(settings model.Settings, deps Deps) *Filter {
	f := &Filter{
		tracker:   filter.NewTracker(filter.DefaultTrackerCapacity),
		roster:    deps.Roster,
		localName: deps.LocalName,
		refresh:   deps.Refresh,
		log:       deps.Log,
		rec:       deps.Recorder,
	}
	if f.roster == nil {
		f.roster = emptyRoster{}
	}
	if f.localName == nil {
		f.localName = func() string { return "" }
	}
	if f.log == nil {
		f.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.rec == nil {
		f.rec = nopRecorder{}
	}
	f.dispatch = f.handlers()

	f.settings.Store(&settings)
	f.external.Store(&filter.Sources{})
	f.recompile()
	return f
}

// Settings returns the settings currently in effect.
func (f *Filter) Settings() model.Settings {
	return *f.settings.Load()
}

// Rules returns the compiled rule set currently in effect.
func (f *Filter) Rules() *filter.RuleSet {
	return f.rules.Load()
}

// Marker returns the quantity marker for the configured count color.
func (f *Filter) Marker() filter.Marker {
	return markerFor(f.settings.Load())
}

// Reconfigure replaces the settings and recompiles the rules.
func (f *Filter) Reconfigure(settings model.Settings) {
	f.settings.Store(&settings)
	f.Handle(Event{Kind: EventConfigChanged, Group: ConfigGroup})
}

// SetExternalSources replaces the rule text loaded from outside the chat's
// own settings and recompiles the rules.
func (f *Filter) SetExternalSources(src filter.Sources) {
	f.external.Store(&src)
	f.Handle(Event{Kind: EventConfigChanged, Group: ConfigGroup})
}

// FilterChatLine decides how msg should be displayed.
func (f *Filter) FilterChatLine(msg model.Message) Decision {
	s := f.settings.Load()

	text, blocked := f.displayText(msg, s)
	if blocked {
		return Decision{Block: true}
	}

	count := filter.DefaultQuantity
	if collapseEnabled(msg.Type, s) {
		d := f.tracker.ShouldCollapse(msg.Author, text, msg.ID, msg.Type.IsPublicChat(), s.MaxRepeatedPublicChats)
		if d.Collapse {
			f.rec.Collapsed()
			return Decision{Block: true, Count: d.Count}
		}
		count = d.Count
	}

	return Decision{Text: markerFor(s).Append(text, count), Count: count}
}

// FilterOverheadText censors text shown above an author. A blocked text
// becomes a single space so the previous text is cleared.
func (f *Filter) FilterOverheadText(author, text string) string {
	s := f.settings.Load()
	if !f.eligible(author, s) {
		return text
	}
	v := f.censor(author, text, s)
	if v.Action == filter.ActionBlock {
		return " "
	}
	return v.Text
}

// Preview returns the text msg shows before duplicate handling and whether
// it is blocked. The duplicate tracker is not consulted.
func (f *Filter) Preview(msg model.Message) (string, bool) {
	return f.displayText(msg, f.settings.Load())
}

// CollapseIntoWindow merges node into the most recent visible line it
// repeats. It returns the merged line with its quantity incremented.
func (f *Filter) CollapseIntoWindow(lines []model.Line, node model.Line) (model.Line, bool) {
	s := f.settings.Load()
	if !s.CollapseWindow {
		return model.Line{}, false
	}
	m := markerFor(s)
	dup, ok := filter.FindDuplicate(lines, node, m)
	if !ok {
		return model.Line{}, false
	}
	dup.Value = m.AddQuantity(dup.Value)
	f.rec.Collapsed()
	return dup, true
}

// displayText returns the text msg should show before duplicate handling.
func (f *Filter) displayText(msg model.Message, s *model.Settings) (string, bool) {
	switch {
	case msg.Type.IsPlayerChat():
		if !f.eligible(msg.Author, s) {
			return msg.Text, false
		}
		v := f.censor(msg.Author, msg.Text, s)
		return v.Text, v.Action == filter.ActionBlock
	case msg.Type == model.TypeLoginLogout && s.FilterLogin:
		f.rec.Verdict(filter.ActionBlock)
		return "", true
	}
	return msg.Text, false
}

func (f *Filter) eligible(author string, s *model.Settings) bool {
	return filter.Eligible(author, f.localName(),
		f.roster.IsFriend(author), f.roster.IsClanMember(author),
		s.FilterFriends, s.FilterClan)
}

func (f *Filter) censor(author, text string, s *model.Settings) filter.Verdict {
	v := filter.Censor(author, text, f.rules.Load(), s.Mode, filter.Options{MatchCompacted: s.MatchCompacted})
	f.rec.Verdict(v.Action)
	return v
}

func (f *Filter) recompile() {
	s := f.settings.Load()
	own := filter.Sources{Words: s.FilteredWords, Regex: s.FilteredRegex, Names: s.FilteredNames}
	rs, errs := filter.Compile(own.Merge(*f.external.Load()))
	for _, err := range errs {
		f.log.Warn("skip invalid rule", "chat_id", s.ChatID, "error", err)
	}
	f.rec.InvalidRules(len(errs))
	f.rec.RuleCount(len(rs.Content), len(rs.Names))
	f.rules.Store(rs)
	f.log.Debug("compile rules", "chat_id", s.ChatID, "content", len(rs.Content), "names", len(rs.Names))
}

func collapseEnabled(t model.MessageType, s *model.Settings) bool {
	if t.IsPublicChat() {
		return s.CollapsePlayerChat
	}
	return t.IsCollapsible() && s.CollapseGameChat
}

func markerFor(s *model.Settings) filter.Marker {
	color := s.CountColor
	if color == "" {
		color = model.DefaultCountColor
	}
	return filter.Marker{Color: color}
}

type emptyRoster struct{}

func (emptyRoster) IsFriend(string) bool     { return false }
func (emptyRoster) IsClanMember(string) bool { return false }

type nopRecorder struct{}

func (nopRecorder) Verdict(filter.Action) {}
func (nopRecorder) Collapsed()            {}
func (nopRecorder) InvalidRules(int)      {}
func (nopRecorder) RuleCount(int, int)    {}
