package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/domain/services"
	"github.com/ersonp/famtree/internal/infrastructure/config"
	"github.com/ersonp/famtree/internal/infrastructure/gateway/httpapi"
	"github.com/ersonp/famtree/internal/infrastructure/logging"
	"github.com/ersonp/famtree/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - the gateway is internal.
type Deps struct {
	Config              *config.Config
	Cases               *config.CasesConfig
	Logger              *logrus.Logger
	CaseHandler         *handlers.CaseHandler
	PersonHandler       *handlers.PersonHandler
	RelationshipHandler *handlers.RelationshipHandler
	GraphHandler        *handlers.GraphHandler
	ImportHandler       *handlers.ImportHandler
	ExportHandler       *handlers.ExportHandler
	// HistoryHandler is nil unless the local store is in use.
	HistoryHandler *handlers.HistoryHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	basePath string
	gateway  ports.Gateway
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including the gateway.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if globalLocal {
		cfg.Store.Mode = config.StoreSQLite
	}

	logger, err := logging.New(cfg.Log, globalVerbose)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	cases, err := config.LoadCases(cwd)
	if err != nil {
		return fmt.Errorf("loading cases: %w", err)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config: cfg,
			Cases:  cases,
			Logger: logger,
		},
		basePath: cwd,
	}

	switch cfg.Store.Mode {
	case config.StoreSQLite:
		sqliteCfg := cfg.SQLite
		sqliteCfg.Path = cfg.SQLitePath(cwd)

		repo, err := sqlite.NewRepository(sqliteCfg)
		if err != nil {
			return fmt.Errorf("creating sqlite repository: %w", err)
		}
		defer repo.Close()

		// Ensure schema exists
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensuring sqlite schema: %w", err)
		}

		logger.WithField("path", sqliteCfg.Path).Debug("using local store")
		deps.gateway = repo
		deps.HistoryHandler = handlers.NewHistoryHandler(repo)
	default:
		logger.WithField("base_url", cfg.APIBaseURL()).Debug("using case API")
		deps.gateway = httpapi.NewClient(cfg.API, logger)
	}

	deps.CaseHandler = handlers.NewCaseHandler(deps.gateway)
	deps.PersonHandler = handlers.NewPersonHandler(deps.gateway)
	deps.RelationshipHandler = handlers.NewRelationshipHandler(deps.gateway)
	deps.GraphHandler = handlers.NewGraphHandler(deps.gateway)
	deps.ImportHandler = handlers.NewImportHandler(services.NewImportService(deps.gateway, logger))
	deps.ExportHandler = handlers.NewExportHandler(deps.gateway)

	return fn(deps)
}

// withCase resolves the --case flag (or the current case) and calls fn with its id.
func withCase(fn func(*Deps, int64) error) error {
	return withDeps(func(d *Deps) error {
		caseID, err := d.Cases.Resolve(globalCase)
		if err != nil {
			return err
		}
		return fn(d, caseID)
	})
}

// withEditor builds an editor for the selected case.
func withEditor(fn func(*services.Editor, *Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		caseID, err := d.Cases.Resolve(globalCase)
		if err != nil {
			return err
		}
		return fn(services.NewEditor(d.gateway, caseID, d.Logger), &d.Deps)
	})
}
