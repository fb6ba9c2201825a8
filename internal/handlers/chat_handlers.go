package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/pelusa-v/speakset/internal/chat"
	"github.com/pelusa-v/speakset/internal/logger"
	"github.com/pelusa-v/speakset/internal/metrics"
	"github.com/pelusa-v/speakset/internal/oracle"
)

type ChatHandler struct {
	store   *chat.Store
	hub     *chat.Hub
	oracle  oracle.Oracle
	metrics *metrics.Metrics
	backend string
}

func NewChatHandler(store *chat.Store, hub *chat.Hub, o oracle.Oracle, m *metrics.Metrics, backend string) *ChatHandler {
	return &ChatHandler{store: store, hub: hub, oracle: o, metrics: m, backend: backend}
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend"`
}

type listResponse struct {
	Channel  string         `json:"channel"`
	Messages []chat.Message `json:"messages"`
}

type loginResponse struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issuedAt"`
}

type postResponse struct {
	Message chat.Message `json:"message"`
}

// Health GET /api/health
func (h *ChatHandler) Health(c *fiber.Ctx) error {
	return writeJSON(c, fiber.StatusOK, healthResponse{OK: true, Backend: h.backend})
}

// ListMessages GET /api/messages?channel=
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	channel := c.Query("channel", chat.DefaultChannel)
	return writeJSON(c, fiber.StatusOK, listResponse{
		Channel:  channel,
		Messages: h.store.List(channel),
	})
}

// Login POST /api/login {username, password}
// The password is only checked for presence.
func (h *ChatHandler) Login(c *fiber.Ctx) error {
	b := parseBody(c)
	username, _ := b.str("username")
	password, _ := b.str("password")
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return writeError(c, fiber.StatusBadRequest, "username and password are required")
	}

	token, err := h.oracle.Generate(c.UserContext(), oracle.KindToken, username)
	if err != nil {
		return h.oracleFailed(c, oracle.KindToken, err)
	}
	h.metrics.Logins.Inc()

	return writeJSON(c, fiber.StatusOK, loginResponse{
		Token:    token,
		Username: username,
		IssuedAt: time.Now().UTC(),
	})
}

// PostMessage POST /api/messages {channel?, author?, text}
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	b := parseBody(c)
	channel, _ := b.str("channel")
	author, _ := b.str("author")
	text, _ := b.str("text")

	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = chat.DefaultChannel
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = chat.DefaultAuthor
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return writeError(c, fiber.StatusBadRequest, "text is required")
	}

	// no lock is held while the helper runs
	id, err := h.oracle.Generate(c.UserContext(), oracle.KindMessageID, author, text, channel)
	if err != nil {
		return h.oracleFailed(c, oracle.KindMessageID, err)
	}

	msg := chat.Message{
		ID:        id,
		Author:    author,
		Text:      text,
		At:        time.Now().UTC(),
		Reactions: map[string]int{},
	}
	h.store.Append(channel, msg)
	h.hub.Publish(channel, msg)
	h.metrics.ObservePost(channel)

	slog.DebugContext(c.UserContext(), "message posted", "channel", channel, "message_id", id, "request_id", logger.RequestID(c))
	return writeJSON(c, fiber.StatusCreated, postResponse{Message: msg})
}

// oracleFailed fails the request, not the process.
func (h *ChatHandler) oracleFailed(c *fiber.Ctx, kind oracle.Kind, err error) error {
	attrs := []any{"kind", kind, "request_id", logger.RequestID(c), "error", err}
	var be *oracle.BuildError
	if errors.As(err, &be) {
		attrs = append(attrs, "build_output", be.Output)
	}
	slog.ErrorContext(c.UserContext(), "identifier generation failed", attrs...)
	return writeError(c, fiber.StatusInternalServerError, "identifier generation failed")
}

// RequireUpgrade rejects plain HTTP requests to the feed endpoint.
func (h *ChatHandler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return writeError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
}

// Feed GET /api/ws?channel=
// Streams every message appended to the channel after the subscription.
func (h *ChatHandler) Feed(conn *websocket.Conn) {
	channel := conn.Query("channel", chat.DefaultChannel)
	client := chat.NewClient(h.hub, channel, conn)
	if !h.hub.Register(client) {
		return
	}
	go client.WritePump()
	client.ReadPump()
}

// NotFound is the catch-all for every unmatched route.
func (h *ChatHandler) NotFound(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusNotFound, "unknown endpoint")
}
