package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "colleges.csv", cfg.CSVPath)
	assert.Equal(t, SourceCSV, cfg.Source)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogDevelopment)
	assert.Equal(t, "colleges", cfg.Table)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLEGES_CSV", "/data/us.csv")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/data/us.csv", cfg.CSVPath)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATA_SOURCE=Postgres\nDB_NAME=colleges\nDB_USER=admin\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("DATA_SOURCE")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("DB_USER")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.Source)
	assert.Equal(t, "host=localhost port=5432 user=admin password= dbname=colleges sslmode=disable", cfg.PostgresDSN())
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{Source: "s3"}).Validate())
	assert.Error(t, (&Config{Source: SourcePostgres}).Validate())
	assert.NoError(t, (&Config{Source: " CSV "}).Validate())
}
