package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, ProviderGitHub, cfg.VCS.Provider)
	assert.Equal(t, "triadblue", cfg.VCS.Owner)
	assert.Equal(t, "CLAUDE.md", cfg.Docs.TargetPath)
	assert.Equal(t, 15*time.Second, cfg.VCS.Timeout)
	assert.True(t, cfg.Docs.AutoPush)
	require.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Server.Port = 8181
	cfg.VCS.Owner = "acme-inc"
	cfg.Docs.Organization = "Acme"
	cfg.Database.Path = filepath.Join(t.TempDir(), "cb.db")

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, loaded.Server.Port)
	assert.Equal(t, "acme-inc", loaded.VCS.Owner)
	assert.Equal(t, "Acme", loaded.Docs.Organization)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Docs, cfg.Docs)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_OWNER", "someone")
	t.Setenv("PORT", "9000")
	t.Setenv("CONSOLEBLUE_VCS", "git")
	t.Setenv("CONSOLEBLUE_DB", "/tmp/x.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.VCS.Token)
	assert.Equal(t, "someone", cfg.VCS.Owner)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, ProviderGit, cfg.VCS.Provider)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/x.duckdb", cfg.DuckDBPath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad provider", func(c *Config) { c.VCS.Provider = "svn" }, "vcs.provider"},
		{"zero timeout", func(c *Config) { c.VCS.Timeout = 0 }, "vcs.timeout"},
		{"empty target", func(c *Config) { c.Docs.TargetPath = " " }, "docs.target_path"},
		{"limit above max", func(c *Config) { c.Docs.HistoryLimit = 500 }, "docs.history_limit"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "project", "acme")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"project":"acme"`), out)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONSOLEBLUE_DB", "PORT", "GITHUB_TOKEN", "GITHUB_OWNER", "GITHUB_API_URL",
		"CONSOLEBLUE_VCS", "CONSOLEBLUE_GIT_ROOT", "CONSOLEBLUE_LOG_LEVEL", "CONSOLEBLUE_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}
