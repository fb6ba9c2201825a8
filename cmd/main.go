package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelusa-v/speakset/internal/chat"
	"github.com/pelusa-v/speakset/internal/config"
	"github.com/pelusa-v/speakset/internal/handlers"
	"github.com/pelusa-v/speakset/internal/idgen"
	"github.com/pelusa-v/speakset/internal/logger"
	"github.com/pelusa-v/speakset/internal/metrics"
	"github.com/pelusa-v/speakset/internal/oracle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.IsProduction())

	m := metrics.New()

	ids, err := newOracle(cfg, m)
	if err != nil {
		slog.Error("failed to set up identifier oracle", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := chat.NewSeededStore(time.Now())
	hub := chat.NewHub()
	hub.OnSubscribers = func(n int) { m.Subscribers.Set(float64(n)) }
	go hub.Start(ctx)

	h := handlers.NewChatHandler(store, hub, m.InstrumentOracle(ids), m, cfg.Backend())
	app := handlers.NewApp(h, handlers.Options{
		StaticDir:    cfg.StaticDir,
		Metrics:      m.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	})

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("speakset listening", "addr", cfg.Addr(), "env", cfg.Env, "oracle", cfg.Oracle)
	if err := app.Listen(cfg.Addr()); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newOracle(cfg config.Config, m *metrics.Metrics) (oracle.Oracle, error) {
	if cfg.Oracle == config.OracleLocal {
		return idgen.NewLocal(cfg.NodeID)
	}
	native := oracle.NewNative(cfg.Native)
	native.OnBuild = m.ObserveBuild
	return native, nil
}
