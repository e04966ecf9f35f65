package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ersonp/name-historian/internal/application/handlers"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/domain/services"
	"github.com/ersonp/name-historian/internal/infrastructure/config"
	"github.com/ersonp/name-historian/internal/infrastructure/logger"
	"github.com/ersonp/name-historian/internal/infrastructure/metrics"
	"github.com/ersonp/name-historian/internal/infrastructure/namesource/mojang"
	"github.com/ersonp/name-historian/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Recorder

	HistoryHandler *handlers.HistoryHandler
	ResolveHandler *handlers.ResolveHandler
	ObserveHandler *handlers.ObserveHandler
	ImportHandler  *handlers.ImportHandler
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer closeLog()

	repo, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	recorder := metrics.NewRecorder()
	store := metrics.InstrumentStore(repo, recorder)

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	opts := []services.Option{
		services.WithMetrics(recorder),
		services.WithLogger(log),
	}
	var resolver ports.IdentityResolver
	if cfg.Lookups.Enabled {
		client := mojang.NewClient(cfg.Lookups)
		opts = append(opts, services.WithChangeSource(client))
		resolver = client
	}

	service := services.NewHistoryService(store, opts...)
	resolve := handlers.NewResolveHandler(service, resolver)

	log.Debug("Opened history database", "path", repo.Path(), "lookups", cfg.Lookups.Enabled)

	return fn(&Deps{
		Config:         cfg,
		Logger:         log,
		Metrics:        recorder,
		HistoryHandler: handlers.NewHistoryHandler(service, resolve),
		ResolveHandler: resolve,
		ObserveHandler: handlers.NewObserveHandler(service),
		ImportHandler:  handlers.NewImportHandler(service, cfg.Import.Concurrency),
	})
}

// openStore opens the SQLite history store for init.
func openStore(cfg config.SQLiteConfig) (ports.HistoryStore, error) {
	repo, err := sqlite.NewRepository(cfg)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
