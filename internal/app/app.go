// Package app provides the top-level lifecycle of the liquidator: wiring the
// external collaborators from configuration, running the one-time bootstrap
// scan, and handing control to the polling engine.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/perpwatch/liquidator/internal/config"
	"github.com/perpwatch/liquidator/internal/engine"
	"github.com/perpwatch/liquidator/internal/executor"
	"github.com/perpwatch/liquidator/internal/metrics"
	"github.com/perpwatch/liquidator/internal/registry"
)

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, bootstraps the working set, and runs the engine
// until the context is cancelled. Bootstrap failures abort startup; once the
// engine is running nothing is fatal.
func (a *App) Run(ctx context.Context) error {
	deps, err := Wire(a.cfg, a.logger)
	if err != nil {
		return err
	}

	boot, err := registry.Bootstrap(ctx, deps.Ledger, deps.Program, deps.Payer.PublicKey(), a.logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := deps.Notifier.Notify(ctx, "bootstrap",
		"Liquidator started",
		fmt.Sprintf("tracking %d accounts", boot.Registry.Len()),
	); err != nil {
		a.logger.Warn("bootstrap notification failed", slog.String("error", err.Error()))
	}

	if a.cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.logger); err != nil {
				a.logger.Error("metrics listener failed", slog.String("error", err.Error()))
			}
		}()
	}

	exec := executor.New(
		deps.Ledger,
		deps.Payer,
		deps.Program,
		boot.ParamsAddr,
		boot.Params,
		boot.OwnAccount,
		deps.Notifier,
		a.logger,
	)
	eng := engine.New(
		deps.Ledger,
		boot.Registry,
		boot.TableAddr,
		boot.Params.MarginRatioPartial.BigInt(),
		exec,
		a.cfg.Liquidator.Workers,
		a.logger,
	)
	return eng.Run(ctx)
}
