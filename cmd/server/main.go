package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eligibility/internal/app"
	"eligibility/internal/platform/config"
	"eligibility/internal/platform/logger"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/cra packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	log.Info("starting eligibility snapshot service",
		"addr", cfg.Server.Addr,
		"cache_backend", cfg.Cache.Backend,
		"acs_year", cfg.Sources.ACSYear,
	)
	if err := a.Serve(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
