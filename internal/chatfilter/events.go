package chatfilter

import (
	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

// ConfigGroup is the configuration group whose changes trigger recompilation.
const ConfigGroup = "chatfilter"

// EventKind identifies the kind of an Event.
type EventKind int

// Event kinds handled by Filter.
const (
	EventChatMessage EventKind = iota
	EventConfigChanged
	EventShutdown
)

func (k EventKind) String() string {
	switch k {
	case EventChatMessage:
		return "chat_message"
	case EventConfigChanged:
		return "config_changed"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Event is delivered to Filter.Handle by the host.
// Message is set for EventChatMessage, Group for EventConfigChanged.
type Event struct {
	Kind    EventKind
	Message model.Message
	Group   string
}

func (f *Filter) handlers() map[EventKind]func(Event) {
	return map[EventKind]func(Event){
		EventChatMessage:   f.onChatMessage,
		EventConfigChanged: f.onConfigChanged,
		EventShutdown:      f.onShutdown,
	}
}

// Handle dispatches ev to its handler. Unknown kinds are ignored.
func (f *Filter) Handle(ev Event) {
	h, ok := f.dispatch[ev.Kind]
	if !ok {
		f.log.Debug("ignore event", "kind", ev.Kind)
		return
	}
	h(ev)
}

func (f *Filter) onChatMessage(ev Event) {
	msg := ev.Message
	if !msg.Type.IsCollapsible() {
		return
	}
	text, blocked := f.displayText(msg, f.settings.Load())
	if blocked {
		return
	}
	f.tracker.Observe(msg.Author, text, msg.ID)
}

func (f *Filter) onConfigChanged(ev Event) {
	if ev.Group != ConfigGroup {
		return
	}
	f.recompile()
	if f.refresh != nil {
		f.refresh()
	}
}

func (f *Filter) onShutdown(Event) {
	f.rules.Store(&filter.RuleSet{})
	f.tracker.Clear()
}
