// Relay accepts published alerts over HTTP or Redis and broadcasts them to WebSocket clients.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/screenwatch/internal/app"
	"github.com/GriffinCanCode/screenwatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := app.New(cfg, logger)
	err = a.Run(ctx, app.ModeRelay)
	a.Close()
	stop()

	if err != nil {
		logger.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}
