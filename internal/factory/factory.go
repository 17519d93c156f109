package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/config"
	"github.com/mcoot/chargedblocks/internal/confirm"
	confirmmem "github.com/mcoot/chargedblocks/internal/confirm/memory"
	confirmredis "github.com/mcoot/chargedblocks/internal/confirm/redis"
	"github.com/mcoot/chargedblocks/internal/dependencies/clock"
	"github.com/mcoot/chargedblocks/internal/dependencies/random"
	"github.com/mcoot/chargedblocks/internal/migration"
	"github.com/mcoot/chargedblocks/internal/services/binding"
	"github.com/mcoot/chargedblocks/internal/services/favorites"
	"github.com/mcoot/chargedblocks/internal/services/reconcile"
	"github.com/mcoot/chargedblocks/internal/session"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/storage/flatfile"
	"github.com/mcoot/chargedblocks/internal/storage/memory"
	"github.com/mcoot/chargedblocks/internal/storage/sqlstore"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// App contains all wired application components
type App struct {
	Settings config.Config
	Logger   *slog.Logger

	// Storage is nil when the backend could not be opened and the registry
	// runs disabled
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Runtime state
	World   *world.World
	Catalog world.Catalog
	Session *session.State
	Journal audit.Journal

	// Services
	Codec     *token.Codec
	Bindings  *binding.Service
	Favorites *favorites.Service
	Reconcile *reconcile.Service
	Migration *migration.Engine
}

// Config holds configuration for the application factory
type Config struct {
	// Settings is the loaded registry configuration
	// If zero value, defaults to config.Default()
	Settings config.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired. A backend that
// cannot be reached is logged and leaves the registry disabled rather than
// failing startup.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	settings := cfg.Settings
	if settings.Storage.Type == "" {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	journal := OpenJournal(settings, clk, logger)

	engine := migration.New(migration.DefaultConfig(settings.DataDir), logger).WithJournal(journal)
	store, err := openStorage(ctx, settings, engine, clk, logger)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}

	tracker := openTracker(settings, clk, logger)

	return newWithDependencies(settings, store, tracker, journal, clk, rnd, logger), nil
}

// OpenJournal returns the configured audit journal, or a no-op one when
// auditing is off
func OpenJournal(settings config.Config, clk clock.Clock, logger *slog.Logger) audit.Journal {
	if !settings.Audit.Enabled {
		return audit.Nop{}
	}
	return audit.NewWriter(settings.AuditDir(), clk, func(err error) {
		logger.Warn("audit write failed", slog.String("error", err.Error()))
	})
}

// openStorage returns the configured backend, or nil when it cannot be used
func openStorage(ctx context.Context, settings config.Config, engine *migration.Engine, clk clock.Clock, logger *slog.Logger) (storage.Storage, error) {
	switch settings.Storage.Type {
	case config.StorageMemory:
		return memory.New(), nil

	case config.StorageFlatFile:
		// The flat-file store reads the migrated file, so the legacy file
		// has to be converted first
		if _, err := engine.Migrate(ctx); err != nil {
			logger.Error("legacy migration failed, registry disabled", slog.String("error", err.Error()))
			return nil, nil
		}
		store, err := flatfile.New(flatfile.DefaultConfig(settings.DataDir))
		if err != nil {
			logger.Error("could not open flat-file registry, registry disabled", slog.String("error", err.Error()))
			return nil, nil
		}
		return store, nil

	case config.StorageSQL:
		sqlCfg := sqlstore.DefaultConfig()
		sqlCfg.Driver = settings.Storage.SQL.Driver
		sqlCfg.DSN = settings.SQLDSN()
		if settings.Storage.SQL.MaxOpenConns > 0 {
			sqlCfg.MaxOpenConns = settings.Storage.SQL.MaxOpenConns
		}
		if settings.Storage.SQL.QueryTimeout > 0 {
			sqlCfg.QueryTimeout = settings.Storage.SQL.QueryTimeout
		}
		store, err := sqlstore.New(ctx, sqlCfg, clk)
		if err != nil {
			logger.Error("could not connect to database, registry disabled",
				slog.String("driver", sqlCfg.Driver),
				slog.String("error", err.Error()),
			)
			return nil, nil
		}
		return store, nil
	}
	return nil, errors.New("invalid storage type: must be 'flatfile', 'sql' or 'memory'")
}

// openTracker returns the configured confirmation tracker, falling back to
// the in-process one when Redis is unreachable
func openTracker(settings config.Config, clk clock.Clock, logger *slog.Logger) confirm.Tracker {
	if settings.Confirm.Type == config.ConfirmRedis {
		redisCfg := confirmredis.DefaultConfig()
		redisCfg.URL = settings.Confirm.RedisURL
		redisCfg.Window = settings.Confirm.Window
		tracker, err := confirmredis.New(redisCfg)
		if err == nil {
			return tracker
		}
		logger.Warn("could not connect to redis, using in-process confirmations",
			slog.String("error", err.Error()),
		)
	}
	return confirmmem.New(clk, settings.Confirm.Window)
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// store may be nil for a disabled registry.
func newWithDependencies(
	settings config.Config,
	store storage.Storage,
	tracker confirm.Tracker,
	journal audit.Journal,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	w := world.New(rnd)
	catalog := world.NewStaticCatalog(settings.CatalogKinds(), settings.CatalogNames())
	state := session.New(tracker)
	codec := token.NewCodec(settings.Codec.DefaultMaxUses, logger)

	// A nil Storage must stay an untyped nil in the narrower interfaces
	var (
		bindingStore  storage.Bindings
		favoriteStore storage.Favorites
	)
	if store != nil {
		bindingStore = store
		favoriteStore = store
	}

	bindingService := binding.New(bindingStore, codec, state.Tracker, journal, w, rnd, logger)
	codec.SetSyncer(bindingService)
	favoriteService := favorites.New(favoriteStore, logger)
	reconcileService := reconcile.New(bindingService, codec, w, w, w, catalog, journal, logger)
	w.SetListener(reconcileService)

	return &App{
		Settings:  settings,
		Logger:    logger,
		Storage:   store,
		Clock:     clk,
		Random:    rnd,
		World:     w,
		Catalog:   catalog,
		Session:   state,
		Journal:   journal,
		Codec:     codec,
		Bindings:  bindingService,
		Favorites: favoriteService,
		Reconcile: reconcileService,
		Migration: migration.New(migration.DefaultConfig(settings.DataDir), logger).WithJournal(journal),
	}
}

// Close releases the session state, journal and storage
func (a *App) Close() error {
	var errs []error
	if err := a.Session.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Journal.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
