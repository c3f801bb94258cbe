package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/infrastructure/config"
	"github.com/ersonp/famtree/internal/infrastructure/relationaldb/sqlite"
)

func TestInitHandler_Handle_Default(t *testing.T) {
	tmpDir := t.TempDir()

	result, err := NewInitHandler().Handle(context.Background(), tmpDir, InitOptions{})
	require.NoError(t, err)

	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Equal(t, config.StoreHTTP, result.StoreMode)
	assert.Empty(t, result.DatabasePath)
	assert.True(t, config.Exists(tmpDir))
}

func TestInitHandler_Handle_Local(t *testing.T) {
	tmpDir := t.TempDir()

	result, err := NewInitHandler().Handle(context.Background(), tmpDir, InitOptions{Local: true, APIURL: "https://cases.example.com"})
	require.NoError(t, err)

	assert.Equal(t, config.StoreSQLite, result.StoreMode)
	assert.FileExists(t, result.DatabasePath)

	cfg, err := config.Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Mode)
	assert.Equal(t, "https://cases.example.com", cfg.API.BaseURL)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()

	// Initialize first
	err := config.WriteDefault(tmpDir)
	require.NoError(t, err)

	_, err = NewInitHandler().Handle(context.Background(), tmpDir, InitOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestHistoryHandler_Handle(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(ctx))

	c, err := repo.CreateCase(ctx, entities.CreateCaseData{Title: "山田家"})
	require.NoError(t, err)
	_, err = repo.CreatePerson(ctx, c.ID, entities.CreatePersonData{Name: "山田太郎"})
	require.NoError(t, err)

	handler := NewHistoryHandler(repo)

	entries, err := handler.Handle(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.AuditPersonCreated, entries[0].Action)
	assert.Equal(t, entities.AuditCaseCreated, entries[1].Action)

	_, err = handler.Handle(ctx, 999, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
