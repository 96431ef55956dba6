package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/custom/migrations", cfg.MigrationsDir)
}

func TestLoadConfig_Default(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MIGRATIONS_DIR", "")
	_ = os.Unsetenv("MIGRATIONS_DIR")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "db/migrations", cfg.MigrationsDir)
}

func TestLoadConfig_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\n"), 0644))
	t.Chdir(tmp)
	t.Setenv("DB_DSN", "from_env")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.DatabaseDSN)
}

func TestRunCommand_Validation(t *testing.T) {
	assert.Error(t, runCommand(nil, t.TempDir(), "create", ""))
	assert.Error(t, runCommand(nil, t.TempDir(), "sideways", ""))
}

func TestRunCommand_CreateWritesSQLFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runCommand(nil, dir, "create", "add_tags"))

	matches, err := filepath.Glob(filepath.Join(dir, "*_add_tags.sql"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
