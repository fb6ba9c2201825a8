package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const jsonContentType = "application/json; charset=utf-8"

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends payload with an explicit UTF-8 charset. fasthttp sets
// Content-Length from the body.
func writeJSON(c *fiber.Ctx, status int, payload any) error {
	raw, err := c.App().Config().JSONEncoder(payload)
	if err != nil {
		return err
	}
	c.Status(status)
	c.Set(fiber.HeaderContentType, jsonContentType)
	return c.Send(raw)
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return writeJSON(c, status, errorResponse{Error: msg})
}

// ErrorHandler renders anything a handler returned as a JSON error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	}
	return writeError(c, code, msg)
}

// body is a decoded JSON request object. Malformed or missing bodies decode
// to an empty body, so every field reads as absent.
type body map[string]any

func parseBody(c *fiber.Ctx) body {
	raw := c.Body()
	if len(bytes.TrimSpace(raw)) == 0 {
		return body{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var b body
	if err := dec.Decode(&b); err != nil || b == nil {
		return body{}
	}
	return b
}

// str returns the field as a string. Scalars are stringified and null
// counts as absent.
func (b body) str(key string) (string, bool) {
	v, ok := b[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
}
