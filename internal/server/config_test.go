package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "agentpoker.db", cfg.Server.DBPath)
	assert.Empty(t, cfg.Server.AdminKey)
	assert.Equal(t, 60, cfg.Limits.AuthPerMin)
	assert.Equal(t, 10, cfg.Limits.ChatPerMin)
	assert.Equal(t, 5, cfg.Limits.RegisterPerMin)
	assert.Equal(t, 30, cfg.Limits.PublicPerMin)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "main", cfg.Tables[0].Name)
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  listen    = ":9090"
  admin_key = "sekret"
}

limits {
  chat_per_min = 3
}

table "main" {
  max_players = 6
}

table "highroller" {
  max_players = 4
  small_blind = 50
}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "sekret", cfg.Server.AdminKey)
	// Unset values keep their defaults.
	assert.Equal(t, "agentpoker.db", cfg.Server.DBPath)
	assert.Equal(t, 3, cfg.Limits.ChatPerMin)
	assert.Equal(t, 60, cfg.Limits.AuthPerMin)

	require.Len(t, cfg.Tables, 2)
	assert.Equal(t, "highroller", cfg.Tables[1].Name)
	assert.Equal(t, 50, cfg.Tables[1].SmallBlind)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { listen = `), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
