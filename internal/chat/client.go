package chat

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one websocket subscriber following a single channel.
type Client struct {
	Id      string
	Channel string
	Conn    ConnLike
	Send    chan []byte

	hub *Hub
}

type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

func NewClient(hub *Hub, channel string, conn ConnLike) *Client {
	return &Client{
		Id:      uuid.NewString(),
		Channel: channel,
		Conn:    conn,
		Send:    make(chan []byte, 16),
		hub:     hub,
	}
}

// ReadPump drains inbound frames until the peer goes away. The feed is
// read-only, so anything the peer sends is ignored.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump forwards queued frames until the hub closes Send.
func (c *Client) WritePump() {
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = c.Conn.Close()
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
