package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/compiler"
	"github.com/ensimdb/ensim/internal/config"
	"github.com/ensimdb/ensim/internal/logging"
	"github.com/ensimdb/ensim/internal/materialize"
	"github.com/ensimdb/ensim/internal/model"
	"github.com/ensimdb/ensim/internal/sampling"
	"github.com/ensimdb/ensim/internal/storage"
)

// runtime bundles the wired subsystems a command needs.
type runtime struct {
	cfg      *config.Config
	log      *slog.Logger
	trace    *logging.TraceLogger
	catalog  *catalog.Catalog
	provider *model.Provider
	store    storage.Engine
	adapter  *compiler.Adapter
}

// ensimDir returns the working directory under root.
func ensimDir(root string) string {
	return filepath.Join(root, ".ensim")
}

// openRuntime loads config, catalog and ensemble from root/.ensim and wires
// the sampling, materialization and storage layers together.
func openRuntime(root string) (*runtime, error) {
	dir := ensimDir(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not initialized, run 'ensim init' first", dir)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	trace := logging.NewTraceLogger(dir, cfg.Logging.Level)

	cat, err := catalog.LoadFromFile(filepath.Join(dir, "catalog.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	provider, err := model.NewFileProvider(filepath.Join(dir, "ensemble.yaml"), cat)
	if err != nil {
		return nil, fmt.Errorf("loading ensemble: %w", err)
	}

	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dir, dbPath)
	}
	store, err := storage.NewSQLiteEngine(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening result storage: %w", err)
	}

	engine := sampling.NewEngine(sampling.Config{Workers: cfg.Sampling.Workers}, trace)
	mat := materialize.NewMaterializer(engine, log)
	adapter := compiler.NewAdapter(cat, provider, mat, store, cfg.Sampling.MaxRows, log)

	return &runtime{
		cfg:      cfg,
		log:      log,
		trace:    trace,
		catalog:  cat,
		provider: provider,
		store:    store,
		adapter:  adapter,
	}, nil
}

// Close releases the runtime's resources.
func (rt *runtime) Close() {
	rt.trace.Close()
	if err := rt.store.Close(); err != nil {
		rt.log.Error("closing result storage", "error", err)
	}
}
