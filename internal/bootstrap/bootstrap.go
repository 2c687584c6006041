// Package bootstrap wires configuration, storage and the seeder together for
// the seed CLI and the server.
package bootstrap

import (
	"context"
	"fmt"

	"seedling/internal/config"
	"seedling/internal/database"
	"seedling/internal/logging"
	"seedling/internal/repository"
	"seedling/internal/seed"

	"github.com/viant/afs"
)

// Driver names accepted by store.driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OpenStore connects the configured store and makes sure its schema exists.
// The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Store, func(), error) {
	var (
		store   repository.Store
		release = func() {}
	)

	switch cfg.Store.Driver {
	case "", DriverMemory:
		store = repository.NewMemoryStore()
	case DriverPostgres:
		logger.Debug("Initializing database connection", "host", cfg.DB.Host, "db", cfg.DB.Name)
		pool, err := database.ConnectPostgres(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		store = repository.NewPostgresStore(pool)
		release = pool.Close
	case DriverSQLite:
		logger.Debug("Opening sqlite database", "dsn", cfg.SQLite.DSN)
		db, err := database.OpenSQLite(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = repository.NewSQLiteStore(db)
		release = func() { _ = db.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("Store ready", "driver", driverName(cfg.Store.Driver))
	return store, release, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverMemory
	}
	return d
}

// Lookup adapts a registry to the seeder's model lookup.
func Lookup(reg *repository.Registry) seed.Lookup {
	return func(name string) (seed.ModelHandle, bool) {
		m, ok := reg.Lookup(name)
		if !ok {
			// avoid handing back a typed nil
			return nil, false
		}
		return m, true
	}
}

// RemoteSeeds turns the configured remote seed URLs into deferred payloads.
// URLs sharing a key form one sequence. Nothing is fetched until the seeder
// prepares its work.
func RemoteSeeds(fs afs.Service, remotes []config.RemoteSeed) seed.Seeds {
	byKey := map[string][]seed.Payload{}
	for _, r := range remotes {
		byKey[r.Key] = append(byKey[r.Key], seed.Fetch(fs, r.URL))
	}
	seeds := seed.Seeds{}
	for key, payloads := range byKey {
		if len(payloads) == 1 {
			seeds[key] = payloads[0]
			continue
		}
		seeds[key] = seed.Sequence(payloads...)
	}
	return seeds
}

// NewSeeder builds a seeder for cfg over store. env overrides cfg.Environment
// when set. The configured remote seeds and then sources are merged after the
// seed directories.
func NewSeeder(cfg *config.Config, store repository.Store, env string, logger *logging.Logger, sources ...seed.Seeds) *seed.Seeder {
	if env == "" {
		env = cfg.Environment
	}
	logger = logger.With("environment", env)
	fs := afs.New()
	reg := repository.NewRegistry(store, cfg.Models...)

	loader := seed.NewLoader(fs, cfg.SeedDir(), cfg.ExtraDirs(), logger)
	if len(cfg.Seed.Remote) > 0 {
		loader.WithSources(RemoteSeeds(fs, cfg.Seed.Remote))
	}
	loader.WithSources(sources...)

	return seed.New(seed.Options{
		Environment: env,
		Loader:      loader,
		Lookup:      Lookup(reg),
		Logger:      logger,
		Strict:      cfg.Seed.Strict,
		Concurrency: cfg.Seed.Concurrency,
	})
}
