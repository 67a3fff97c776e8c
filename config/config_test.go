package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROGRESSION_DB_PATH", "")
	t.Setenv("PROGRESSION_LOG_LEVEL", "")
	t.Setenv("PROGRESSION_DRAFT_SEED", "")
	t.Setenv("PROGRESSION_STRICT_SCORES", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "progression.db", cfg.DBPath)
	require.Equal(t, log.InfoLevel, cfg.LogLevel)
	require.True(t, cfg.StrictScores)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PROGRESSION_DB_PATH", "/tmp/cup.db")
	t.Setenv("PROGRESSION_LOG_LEVEL", "debug")
	t.Setenv("PROGRESSION_DRAFT_SEED", "42")
	t.Setenv("PROGRESSION_STRICT_SCORES", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/cup.db", cfg.DBPath)
	require.Equal(t, log.DebugLevel, cfg.LogLevel)
	require.Equal(t, int64(42), cfg.DraftSeed)
	require.False(t, cfg.StrictScores)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("PROGRESSION_DB_PATH", "")
	t.Setenv("PROGRESSION_DRAFT_SEED", "7")
	os.Unsetenv("PROGRESSION_DB_PATH")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PROGRESSION_DB_PATH=from-file.db\nPROGRESSION_DRAFT_SEED=99\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-file.db", cfg.DBPath)
	// Variables that are already set win over the file
	require.Equal(t, int64(7), cfg.DraftSeed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("PROGRESSION_LOG_LEVEL", "loud")
	_, err := Load()
	require.ErrorContains(t, err, "PROGRESSION_LOG_LEVEL")

	t.Setenv("PROGRESSION_LOG_LEVEL", "")
	t.Setenv("PROGRESSION_DRAFT_SEED", "abc")
	_, err = Load()
	require.ErrorContains(t, err, "PROGRESSION_DRAFT_SEED")

	t.Setenv("PROGRESSION_DRAFT_SEED", "")
	t.Setenv("PROGRESSION_STRICT_SCORES", "maybe")
	_, err = Load()
	require.ErrorContains(t, err, "PROGRESSION_STRICT_SCORES")
}
