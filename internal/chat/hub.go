package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub fans appended messages out to websocket subscribers of a channel.
// Only the Start loop mutates the registry and closes client queues.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // id -> client

	RegisterChan   chan *Client
	UnregisterChan chan *Client
	PublishChan    chan *Event

	done chan struct{}

	// OnSubscribers, when set, is called with the subscriber count after
	// every registration change.
	OnSubscribers func(n int)
}

func NewHub() *Hub {
	return &Hub{
		clients:        map[string]*Client{},
		RegisterChan:   make(chan *Client),
		UnregisterChan: make(chan *Client),
		PublishChan:    make(chan *Event, 256),
		done:           make(chan struct{}),
	}
}

// Publish queues msg for delivery without blocking the caller. When the
// queue is full the event is dropped.
func (h *Hub) Publish(channel string, msg Message) {
	ev := &Event{Channel: channel, Message: msg.clone()}
	select {
	case h.PublishChan <- ev:
	default:
		slog.Warn("feed queue full, dropping event", "channel", channel, "message_id", msg.ID)
	}
}

// Subscribers reports how many clients follow channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.Channel == channel {
			n++
		}
	}
	return n
}

// Done is closed once Start has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register hands client to the running hub. It reports false when the hub
// has already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.RegisterChan <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.UnregisterChan <- client:
	case <-h.done:
	}
}

func (h *Hub) Start(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.notify(0)
			return

		case client := <-h.RegisterChan:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.clients[client.Id] = client
			n := len(h.clients)
			h.mu.Unlock()
			slog.Debug("feed subscriber joined", "client_id", client.Id, "channel", client.Channel, "subscribers", n)
			h.notify(n)

		case client := <-h.UnregisterChan:
			h.mu.Lock()
			_, ok := h.clients[client.Id]
			if ok {
				delete(h.clients, client.Id)
				close(client.Send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if ok {
				slog.Debug("feed subscriber left", "client_id", client.Id, "channel", client.Channel, "subscribers", n)
				h.notify(n)
			}

		case ev := <-h.PublishChan:
			h.fanOut(ev)
		}
	}
}

func (h *Hub) fanOut(ev *Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode feed event", "channel", ev.Channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Channel != ev.Channel {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// slow subscriber, skip this frame
		}
	}
}

func (h *Hub) notify(n int) {
	if h.OnSubscribers != nil {
		h.OnSubscribers(n)
	}
}
