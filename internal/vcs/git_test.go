package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestGitCommitFile(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	g := NewGit(root, "triadblue", nil)
	assert.True(t, g.IsConfigured())

	ctx := context.Background()
	req := CommitRequest{Repo: "acme", Path: "CLAUDE.md", Content: "v1", Message: "first", Branch: "main"}

	first, err := g.CommitFile(ctx, req)
	require.NoError(t, err)
	assert.Len(t, first.SHA, 40)

	data, err := os.ReadFile(filepath.Join(root, "triadblue", "acme", "CLAUDE.md"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	req.Content = "v2"
	req.Message = "second"
	second, err := g.CommitFile(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.SHA, second.SHA)

	// Same content still yields a new commit
	third, err := g.CommitFile(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, second.SHA, third.SHA)

	branch, err := g.run(ctx, g.RepoDir("", "acme"), "rev-parse", "--abbrev-ref", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestGitRejectsEscapingPaths(t *testing.T) {
	g := NewGit(t.TempDir(), "triadblue", nil)

	_, err := g.CommitFile(context.Background(), CommitRequest{Repo: "acme", Path: "../x.md", Content: "x", Message: "m"})
	assert.Error(t, err)

	_, err = g.CommitFile(context.Background(), CommitRequest{Repo: "../acme", Path: "x.md", Content: "x", Message: "m"})
	assert.Error(t, err)
}

func TestGitNotConfiguredWithoutRoot(t *testing.T) {
	assert.False(t, NewGit("", "", nil).IsConfigured())
}

func TestGitRejectsOwnerOutsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "root")
	g := NewGit(root, "triadblue", nil)

	for _, owner := range []string{"../escaped", "a/b", "..", `a\b`} {
		_, err := g.CommitFile(context.Background(), CommitRequest{
			Owner: owner, Repo: "web", Path: "CLAUDE.md", Content: "x", Message: "m",
		})
		assert.True(t, errors.HasCode(err, errors.EValidation), "owner %q", owner)
	}

	_, err := os.Stat(filepath.Join(base, "escaped"))
	assert.True(t, os.IsNotExist(err), "nothing may be created outside the root")

	bad := NewGit(root, "../escaped", nil)
	_, err = bad.CommitFile(context.Background(), CommitRequest{Repo: "web", Path: "CLAUDE.md", Content: "x", Message: "m"})
	assert.True(t, errors.HasCode(err, errors.EValidation))
}

func TestGitRejectsOptionLikeBranch(t *testing.T) {
	root := t.TempDir()
	g := NewGit(root, "triadblue", nil)

	for _, branch := range []string{"-f", "--orphan", "feature..x", "has space", "x.lock"} {
		_, err := g.CommitFile(context.Background(), CommitRequest{
			Repo: "web", Path: "CLAUDE.md", Content: "x", Message: "m", Branch: branch,
		})
		assert.True(t, errors.HasCode(err, errors.EValidation), "branch %q", branch)
	}

	_, err := os.Stat(filepath.Join(root, "triadblue", "web"))
	assert.True(t, os.IsNotExist(err))
}

func TestGitCommitsOnNestedBranch(t *testing.T) {
	requireGit(t)
	g := NewGit(t.TempDir(), "triadblue", nil)

	_, err := g.CommitFile(context.Background(), CommitRequest{
		Repo: "web", Path: "CLAUDE.md", Content: "x", Message: "m", Branch: "docs/onboarding",
	})
	require.NoError(t, err)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("owner", "triad-blue"))
	assert.NoError(t, ValidateName("repo", "web.site_v2"))
	assert.Error(t, ValidateName("repo", ""))
	assert.Error(t, ValidateName("repo", "../web"))
	assert.Error(t, ValidateName("repo", "/abs"))
}
