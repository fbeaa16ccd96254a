package filter

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultTrackerCapacity bounds the number of distinct messages remembered.
const DefaultTrackerCapacity = 100

type duplicateKey struct {
	author string
	text   string
}

type duplicateEntry struct {
	count         int
	lastMessageID int64
}

// CollapseDecision tells the caller whether to hide a line and how many
// times its text has been seen.
type CollapseDecision struct {
	Collapse bool
	Count    int
}

// Tracker counts repeats of (author, text) pairs in a bounded LRU cache.
type Tracker struct {
	cache *lru.Cache[duplicateKey, *duplicateEntry]
}

// NewTracker returns a Tracker holding at most capacity entries.
// A non-positive capacity selects DefaultTrackerCapacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultTrackerCapacity
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[duplicateKey, *duplicateEntry](capacity)
	return &Tracker{cache: cache}
}

// Observe records a rendered message, incrementing the count of its key and
// moving it to the most recently used position.
func (t *Tracker) Observe(author, text string, messageID int64) {
	key := duplicateKey{author: author, text: text}
	if e, ok := t.cache.Get(key); ok {
		e.count++
		e.lastMessageID = messageID
		return
	}
	t.cache.Add(key, &duplicateEntry{count: 1, lastMessageID: messageID})
}

// ShouldCollapse decides whether the line with messageID should be hidden
// in favour of a later identical line. A line collapses when a newer message
// with the same key was observed, or, for public chat, when the count
// exceeds a positive maxRepeats.
func (t *Tracker) ShouldCollapse(author, text string, messageID int64, publicChat bool, maxRepeats int) CollapseDecision {
	e, ok := t.cache.Get(duplicateKey{author: author, text: text})
	if !ok {
		return CollapseDecision{Collapse: false, Count: DefaultQuantity}
	}
	collapse := e.lastMessageID != messageID ||
		(publicChat && maxRepeats > 0 && e.count > maxRepeats)
	return CollapseDecision{Collapse: collapse, Count: e.count}
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return t.cache.Len()
}

// Clear forgets every tracked key.
func (t *Tracker) Clear() {
	t.cache.Purge()
}
