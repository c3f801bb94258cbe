package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreHTTP, cfg.Store.Mode)
	assert.Equal(t, DefaultDatabaseFile, cfg.SQLite.Path)
	assert.Equal(t, int64(1), cfg.SQLite.UserID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigDir(t *testing.T) {
	assert.Equal(t, "/home/user/project/.famtree", ConfigDir("/home/user/project"))
	assert.Equal(t, "/home/user/project/.famtree/config.yaml", ConfigFilePath("/home/user/project"))
	assert.Equal(t, "/home/user/project/.famtree/cases.yaml", CasesFilePath("/home/user/project"))
}

func TestLoad_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, Default().API, cfg.API)
	assert.Equal(t, Default().Store, cfg.Store)
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.API.BaseURL = "https://cases.example.com/"
	cfg.API.Timeout = 5 * time.Second
	cfg.Store.Mode = StoreSQLite
	cfg.SQLite.Path = "local.db"
	cfg.Log.Format = "json"
	require.NoError(t, Write(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://cases.example.com", loaded.APIBaseURL())
	assert.Equal(t, 5*time.Second, loaded.API.Timeout)
	assert.Equal(t, StoreSQLite, loaded.Store.Mode)
	assert.Equal(t, filepath.Join(dir, ".famtree", "local.db"), loaded.SQLitePath(dir))
	assert.Equal(t, "json", loaded.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvAPIToken, "secret")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvAPIToken+"=from-dotenv\n"), 0600))
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv(EnvAPIToken, "")
	require.NoError(t, os.Unsetenv(EnvAPIToken))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.API.Token)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "famtree init")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("store:\n  mode: ftp\n"), 0600))
	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store.mode")

	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("api: [\n"), 0600))
	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	err := WriteDefault(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSQLitePath(t *testing.T) {
	cfg := Default()

	cfg.SQLite.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.SQLitePath("/base"))

	cfg.SQLite.Path = "/var/lib/famtree.db"
	assert.Equal(t, "/var/lib/famtree.db", cfg.SQLitePath("/base"))

	cfg.SQLite.Path = "famtree.db"
	assert.Equal(t, "/base/.famtree/famtree.db", cfg.SQLitePath("/base"))
}
