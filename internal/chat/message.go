package chat

import "time"

const (
	DefaultChannel = "text:general"
	DefaultAuthor  = "anonymous"
)

// Message is one posted chat entry. Reactions is reserved: no endpoint
// mutates it yet, but it always serializes as an object.
type Message struct {
	ID        string         `json:"id"`
	Author    string         `json:"author"`
	Text      string         `json:"text"`
	At        time.Time      `json:"at"`
	Reactions map[string]int `json:"reactions"`
}

func (m Message) clone() Message {
	out := m
	out.Reactions = make(map[string]int, len(m.Reactions))
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	return out
}

// Event is the frame pushed to channel subscribers when a message is appended.
type Event struct {
	Channel string  `json:"channel"`
	Message Message `json:"message"`
}
