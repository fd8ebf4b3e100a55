package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

// GitHubOptions configure the GitHub client
type GitHubOptions struct {
	Token string
	Owner string
	// APIURL overrides https://api.github.com/ (GitHub Enterprise, tests)
	APIURL     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GitHub commits files through the repository contents API
type GitHub struct {
	client *github.Client
	token  string
	owner  string
	log    *slog.Logger
}

// NewGitHub creates a GitHub client. A missing token yields a client whose
// IsConfigured reports false.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.APIURL != "" {
		base := opts.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = u
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &GitHub{client: client, token: opts.Token, owner: opts.Owner, log: log}, nil
}

// IsConfigured reports whether a token is set
func (g *GitHub) IsConfigured() bool {
	return g.token != ""
}

// CommitFile creates the file or replaces it using its current blob SHA
func (g *GitHub) CommitFile(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	owner := req.Owner
	if owner == "" {
		owner = g.owner
	}

	existingSHA, err := g.currentSHA(ctx, owner, req)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(req.Message),
		Content: []byte(req.Content),
	}
	if req.Branch != "" {
		opts.Branch = github.String(req.Branch)
	}

	var resp *github.RepositoryContentResponse
	if existingSHA == "" {
		resp, _, err = g.client.Repositories.CreateFile(ctx, owner, req.Repo, req.Path, opts)
	} else {
		opts.SHA = github.String(existingSHA)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, owner, req.Repo, req.Path, opts)
	}
	if err != nil {
		return nil, err
	}

	result := &CommitResult{
		SHA: resp.Commit.GetSHA(),
		URL: resp.Commit.GetHTMLURL(),
	}
	g.log.Info("committed file",
		"repo", owner+"/"+req.Repo,
		"path", req.Path,
		"branch", req.Branch,
		"sha", result.SHA)
	return result, nil
}

// currentSHA returns the blob SHA of req.Path, or "" when it does not exist
func (g *GitHub) currentSHA(ctx context.Context, owner string, req CommitRequest) (string, error) {
	var getOpts *github.RepositoryContentGetOptions
	if req.Branch != "" {
		getOpts = &github.RepositoryContentGetOptions{Ref: req.Branch}
	}
	file, _, resp, err := g.client.Repositories.GetContents(ctx, owner, req.Repo, req.Path, getOpts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory", req.Path)
	}
	return file.GetSHA(), nil
}
