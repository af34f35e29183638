// Package app wires configuration into running monitors and the relay.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GriffinCanCode/screenwatch/internal/config"
)

// App is the root object of one process. It owns the configuration, logger
// and the cleanup registered by Wire.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With("component", "app"),
	}
}

// Run validates the configuration for mode, wires dependencies and blocks
// until ctx is cancelled or the mode fails.
func (a *App) Run(ctx context.Context, mode Mode) error {
	if err := a.validate(mode); err != nil {
		return err
	}
	a.logger.Info("starting", "mode", mode, "log_level", a.cfg.LogLevel)

	deps, cleanup, err := Wire(ctx, a.cfg, mode)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, cleanup)

	switch mode {
	case ModeClick:
		return a.ClickMode(ctx, deps)
	case ModeMarket:
		return a.MarketMode(ctx, deps)
	case ModeRelay:
		return a.RelayMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", mode)
	}
}

func (a *App) validate(mode Mode) error {
	switch mode {
	case ModeClick:
		return a.cfg.ValidateClick()
	case ModeMarket:
		return a.cfg.ValidateMarket()
	case ModeRelay:
		return a.cfg.ValidateRelay()
	default:
		return fmt.Errorf("app: unsupported mode %q", mode)
	}
}

// Close releases resources in reverse registration order. Safe to call twice.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.logger.Info("shutdown complete")
}
