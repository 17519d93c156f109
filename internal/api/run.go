package api

import (
	"context"
	"log/slog"

	"github.com/mcoot/chargedblocks/internal/factory"
)

// RouterConfigFor wires the router to an application's services
func RouterConfigFor(app *factory.App) RouterConfig {
	return RouterConfig{
		Logger:      app.Logger,
		Bindings:    app.Bindings,
		Reconcile:   app.Reconcile,
		Favorites:   app.Favorites,
		Session:     app.Session,
		Codec:       app.Codec,
		World:       app.World,
		Catalog:     app.Catalog,
		Migration:   app.Migration,
		StorageType: app.Settings.Storage.Type,
	}
}

// Run serves the application's API until ctx is cancelled, then shuts the
// server down gracefully. Closing the application is left to the caller.
func Run(ctx context.Context, app *factory.App) error {
	logger := app.Logger

	if !app.Bindings.Enabled() {
		logger.Warn("registry disabled, binding operations will fail until restart")
	}

	server := NewServer(NewRouter(RouterConfigFor(app)), ServerConfigFrom(app.Settings.Server), logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.Settings.Storage.Type),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
