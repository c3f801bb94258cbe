// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree/internal/infrastructure/config"
	"github.com/ersonp/famtree/internal/infrastructure/relationaldb/sqlite"
)

// InitHandler handles workspace initialization.
type InitHandler struct{}

// NewInitHandler creates a new init handler.
func NewInitHandler() *InitHandler {
	return &InitHandler{}
}

// InitOptions controls what init writes.
type InitOptions struct {
	Local  bool   // Use the local SQLite store
	APIURL string // Case API base URL (empty = default)
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	StoreMode    string
	DatabasePath string // Set for the local store
}

// Handle writes the configuration and, for the local store, creates the database schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string, opts InitOptions) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("famtree already initialized in %s", basePath)
	}

	if opts.Local || opts.APIURL != "" {
		written := config.Default()
		if opts.Local {
			written.Store.Mode = config.StoreSQLite
		}
		if opts.APIURL != "" {
			written.API.BaseURL = opts.APIURL
		}
		if err := config.Write(basePath, written); err != nil {
			return nil, fmt.Errorf("writing config: %w", err)
		}
	} else if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		StoreMode:  cfg.Store.Mode,
	}

	if cfg.Store.Mode == config.StoreSQLite {
		sqliteCfg := cfg.SQLite
		sqliteCfg.Path = cfg.SQLitePath(basePath)

		repo, err := sqlite.NewRepository(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		defer repo.Close()

		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
		result.DatabasePath = sqliteCfg.Path
	}

	return result, nil
}
