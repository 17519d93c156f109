package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/chargedblocks/internal/api"
	"github.com/mcoot/chargedblocks/internal/config"
	"github.com/mcoot/chargedblocks/internal/factory"
)

func main() {
	configPath := flag.String("config", os.Getenv("CHARGED_CONFIG"), "path to the registry config file")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := settings.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := run(settings, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(settings config.Config, logger *slog.Logger) error {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factory.Config{
		Settings: settings,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	return api.Run(ctx, app)
}
