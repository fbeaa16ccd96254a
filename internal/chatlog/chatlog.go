// Package chatlog keeps the recent lines of one source chat together with
// the state of their relay copies.
package chatlog

import "chat_filter/internal/model"

// DefaultCapacity is the number of lines kept per chat.
const DefaultCapacity = 50

// Entry is a source message and its relay copy.
type Entry struct {
	Message model.Message
	// RelayID is the id of the relay copy, zero while none exists.
	RelayID int
	// Shown is the text of the relay copy.
	Shown   string
	// Repeats counts the messages merged into this line, itself included.
	Repeats int

	pending bool
}

// Pending reports whether the entry has not been rendered yet.
func (e *Entry) Pending() bool {
	return e.pending
}

// Rendered marks the entry as processed by a refresh.
func (e *Entry) Rendered() {
	e.pending = false
}

// Visible reports whether the entry currently has a relay copy.
func (e *Entry) Visible() bool {
	return e.RelayID != 0
}

// Hide forgets the relay copy.
func (e *Entry) Hide() {
	e.RelayID = 0
	e.Shown = ""
}

// Line returns the entry as a displayed line.
func (e *Entry) Line() model.Line {
	return model.Line{
		ID:     e.Message.ID,
		Type:   e.Message.Type,
		Author: e.Message.Author,
		Value:  e.Shown,
	}
}

// Buffer is a bounded, ordered list of entries, oldest first.
// It is not safe for concurrent use.
type Buffer struct {
	capacity int
	entries  []*Entry
}

// NewBuffer returns a Buffer holding at most capacity entries.
// A non-positive capacity selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Add appends msg as a pending entry, dropping the oldest entry when full.
func (b *Buffer) Add(msg model.Message) *Entry {
	e := &Entry{Message: msg, Repeats: 1, pending: true}
	b.entries = append(b.entries, e)
	if len(b.entries) > b.capacity {
		b.entries[0] = nil
		b.entries = b.entries[1:]
	}
	return e
}

// Get returns the entry for a source message id.
func (b *Buffer) Get(messageID int64) (*Entry, bool) {
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].Message.ID == messageID {
			return b.entries[i], true
		}
	}
	return nil, false
}

// ByRelayID returns the entry whose relay copy has the given id.
func (b *Buffer) ByRelayID(relayID int) (*Entry, bool) {
	if relayID == 0 {
		return nil, false
	}
	for _, e := range b.entries {
		if e.RelayID == relayID {
			return e, true
		}
	}
	return nil, false
}

// Entries returns the buffered entries, oldest first.
func (b *Buffer) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Lines returns the visible entries as displayed lines.
func (b *Buffer) Lines() []model.Line {
	var lines []model.Line
	for _, e := range b.entries {
		if e.Visible() {
			lines = append(lines, e.Line())
		}
	}
	return lines
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Clear drops every entry.
func (b *Buffer) Clear() {
	b.entries = nil
}
