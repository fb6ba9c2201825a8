package chat

import (
	"sort"
	"sync"
	"time"
)

// Store holds every channel's messages for the lifetime of the process.
// All access goes through one lock; it is never held across I/O.
type Store struct {
	mu       sync.RWMutex
	channels map[string][]Message // channel -> messages in arrival order
}

func NewStore() *Store {
	return &Store{channels: map[string][]Message{}}
}

// NewSeededStore returns a store whose default channel already holds the
// two welcome messages.
func NewSeededStore(now time.Time) *Store {
	s := NewStore()
	at := now.UTC()
	s.channels[DefaultChannel] = []Message{
		{ID: "seed_1", Author: "alex", Text: "Welcome to Speakset 👋", At: at, Reactions: map[string]int{}},
		{ID: "seed_2", Author: "rhea", Text: "Backend is live with Python + C++ 🔥", At: at, Reactions: map[string]int{"🔥": 2}},
	}
	return s
}

// List returns a copy of the channel's messages in insertion order.
// Unknown channels yield an empty slice.
func (s *Store) List(channel string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.channels[channel]
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}

// Append adds msg to the end of channel, creating the channel if needed.
func (s *Store) Append(channel string, msg Message) {
	// copy outside the lock so the caller keeps ownership of its map
	stored := msg.clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel] = append(s.channels[channel], stored)
}

// Channels returns the known channel keys, sorted.
func (s *Store) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
