package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Git commits files into local repositories under a root directory, one
// repository per <root>/<owner>/<repo>. Missing repositories are initialised.
type Git struct {
	root  string
	owner string
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGit creates a local git client rooted at root
func NewGit(root, defaultOwner string, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{root: root, owner: defaultOwner, log: logger, locks: make(map[string]*sync.Mutex)}
}

// IsConfigured reports whether a root directory is set and git is installed
func (g *Git) IsConfigured() bool {
	if g.root == "" {
		return false
	}
	_, err := exec.LookPath("git")
	return err == nil
}

// RepoDir returns the working directory for a repository
func (g *Git) RepoDir(owner, repo string) string {
	if owner == "" {
		owner = g.owner
	}
	return filepath.Join(g.root, owner, repo)
}

// CommitFile writes the file and commits it on the requested branch
func (g *Git) CommitFile(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	owner := req.Owner
	if owner == "" {
		owner = g.owner
	}
	if err := ValidateName("owner", owner); err != nil {
		return nil, err
	}
	dir := g.RepoDir(owner, req.Repo)

	unlock := g.lock(dir)
	defer unlock()

	if err := g.ensureRepo(ctx, dir); err != nil {
		return nil, err
	}
	if req.Branch != "" {
		if err := g.switchBranch(ctx, dir, req.Branch); err != nil {
			return nil, err
		}
	}

	target := filepath.Join(dir, filepath.FromSlash(req.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(req.Content), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Path, err)
	}

	if _, err := g.run(ctx, dir, "add", "--", req.Path); err != nil {
		return nil, err
	}
	if _, err := g.run(ctx, dir, "commit", "--allow-empty", "-m", req.Message); err != nil {
		return nil, err
	}
	sha, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	g.log.Info("committed file", "dir", dir, "path", req.Path, "sha", sha)
	return &CommitResult{SHA: sha, URL: "file://" + filepath.ToSlash(dir) + "#" + sha}, nil
}

func (g *Git) lock(dir string) func() {
	g.mu.Lock()
	l, ok := g.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		g.locks[dir] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (g *Git) ensureRepo(ctx context.Context, dir string) error {
	if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create repository dir: %w", err)
	}
	_, err := g.run(ctx, dir, "init")
	return err
}

// switchBranch checks out branch, creating it from HEAD when missing. An
// empty repository just points HEAD at the branch.
func (g *Git) switchBranch(ctx context.Context, dir, branch string) error {
	if _, err := g.run(ctx, dir, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		_, err := g.run(ctx, dir, "symbolic-ref", "HEAD", "refs/heads/"+branch)
		return err
	}
	current, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return err
	}
	if current == branch {
		return nil
	}
	if _, err := g.run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch); err == nil {
		_, err = g.run(ctx, dir, "checkout", branch, "--")
		return err
	}
	_, err = g.run(ctx, dir, "checkout", "-b", branch, "--")
	return err
}

var commitIdentity = []string{
	"GIT_AUTHOR_NAME=ConsoleBlue",
	"GIT_AUTHOR_EMAIL=consoleblue@localhost",
	"GIT_COMMITTER_NAME=ConsoleBlue",
	"GIT_COMMITTER_EMAIL=consoleblue@localhost",
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	g.log.Debug("executing git", "args", args, "dir", dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), commitIdentity...)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("git %s: %w", args[0], ctx.Err())
		}
		return output, fmt.Errorf("git %s failed: %w: %s", args[0], err, output)
	}
	return output, nil
}
