package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/config"
	"github.com/TRIADBLUE/consoleblue/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI points the global flags at a throwaway config and database
func setupCLI(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	dbPath = filepath.Join(dir, "consoleblue.db")
	jsonOut = false
	verbose = false

	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("CONSOLEBLUE_DB", "")
	t.Setenv("CONSOLEBLUE_VCS", "")
	t.Setenv("CONSOLEBLUE_LOG_LEVEL", "error")

	t.Cleanup(func() {
		configPath, dbPath = "", ""
		rootCmd.SetArgs(nil)
	})
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestNewVCSClient(t *testing.T) {
	cfg := config.Default()
	cfg.VCS.Provider = config.ProviderGit
	cfg.VCS.GitRoot = t.TempDir()

	client, err := newVCSClient(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &vcs.Git{}, client)

	cfg.VCS.Provider = config.ProviderGitHub
	cfg.VCS.Token = ""
	client, err = newVCSClient(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &vcs.GitHub{}, client)
	assert.False(t, client.IsConfigured())
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	setupCLI(t)
	verbose = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestProjectCreateGeneratesStarterDocs(t *testing.T) {
	setupCLI(t)

	require.NoError(t, execute(t, "project", "create", "demo", "Demo App", "--repo", "demo"))

	a, err := openApp(nil)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.projects.Get(context.Background(), "demo")
	require.NoError(t, err)
	n, err := a.fragments.CountProjectDocs(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Positive(t, n)

	// no token, so nothing was published
	page, err := a.history.List(context.Background(), p.ID, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestDocsPushWithoutTokenFails(t *testing.T) {
	setupCLI(t)
	require.NoError(t, execute(t, "project", "create", "demo", "Demo App", "--repo", "demo"))

	err := execute(t, "docs", "push", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_SERVICE_UNAVAILABLE")
}
