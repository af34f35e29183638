package server

import (
	"encoding/json"
	"sync"
)

// Event is one message broadcast to clients. Room is empty for global events.
type Event struct {
	Type string          `json:"type"`
	Room string          `json:"room,omitempty"`
	Data json.RawMessage `json:"data"`
}

// History keeps the most recent broadcasts for replay.
type History struct {
	mu      sync.RWMutex
	entries []Event
	maxSize int
}

// NewHistory creates a history holding at most maxEntries events. Zero or
// negative keeps nothing.
func NewHistory(maxEntries int) *History {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &History{entries: make([]Event, 0, maxEntries), maxSize: maxEntries}
}

// Add appends e, dropping the oldest entry when full.
func (h *History) Add(e Event) {
	if h.maxSize == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Recent returns a copy of all kept events, oldest first.
func (h *History) Recent() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]Event, len(h.entries))
	copy(result, h.entries)
	return result
}

// ForRoom returns the kept events addressed to room, oldest first.
func (h *History) ForRoom(room string) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var result []Event
	for _, e := range h.entries {
		if e.Room == room {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of kept events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
