package handlers

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/pelusa-v/speakset/internal/logger"
)

type Options struct {
	StaticDir    string // empty disables static serving
	Metrics      fiber.Handler
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewApp wires every route onto a fresh fiber app.
func NewApp(h *ChatHandler, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "speakset",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		IdleTimeout:           opts.IdleTimeout,
	})
	app.Use(logger.Middleware())

	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Get("/messages", h.ListMessages)
	api.Post("/messages", h.PostMessage)
	api.Post("/login", h.Login)
	api.Get("/ws", h.RequireUpgrade, websocket.New(h.Feed))

	if opts.Metrics != nil {
		app.Get("/metrics", opts.Metrics)
	}
	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	app.Use(h.NotFound)
	return app
}
