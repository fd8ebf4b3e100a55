// Package vcs commits single files to a version-control repository.
package vcs

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// CommitRequest describes one create-or-replace file commit
type CommitRequest struct {
	Owner   string
	Repo    string
	Path    string
	Content string
	Message string
	// Branch is optional; the repository default is used when empty
	Branch string
}

// CommitResult identifies the commit that was created
type CommitResult struct {
	SHA string `json:"commitSha"`
	URL string `json:"commitUrl"`
}

// Client is a repository that accepts file commits
type Client interface {
	// CommitFile fully replaces the file at req.Path
	CommitFile(ctx context.Context, req CommitRequest) (*CommitResult, error)
	// IsConfigured reports whether credentials are present. It never
	// touches the network.
	IsConfigured() bool
}

// ValidatePath checks that p is a relative path inside the repository
func ValidatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.Validation("targetPath", "is required")
	}
	if len(p) > 500 {
		return errors.Validation("targetPath", "must be at most 500 characters")
	}
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return errors.Validation("targetPath", "must be a relative path inside the repository")
	}
	return nil
}

// ValidateName checks that an owner or repository name is a single path
// element
func ValidateName(field, name string) error {
	if name == "" {
		return errors.Validation(field, "is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || !filepath.IsLocal(name) {
		return errors.Validation(field, "must be a single name without path separators")
	}
	return nil
}

// ValidateBranch rejects names git would read as an option or refuse as a
// ref. Empty means the repository default.
func ValidateBranch(branch string) error {
	if branch == "" {
		return nil
	}
	if strings.HasPrefix(branch, "-") || strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") ||
		strings.HasSuffix(branch, ".lock") || strings.HasSuffix(branch, ".") ||
		strings.Contains(branch, "..") || strings.Contains(branch, "@{") || strings.Contains(branch, "//") ||
		strings.ContainsAny(branch, " ~^:?*[\\\x7f") {
		return errors.Validation("branch", "is not a valid branch name")
	}
	for _, r := range branch {
		if r < 0x20 {
			return errors.Validation("branch", "is not a valid branch name")
		}
	}
	return nil
}

func validateRequest(req CommitRequest) error {
	if err := ValidateName("repo", req.Repo); err != nil {
		return err
	}
	if req.Owner != "" {
		if err := ValidateName("owner", req.Owner); err != nil {
			return err
		}
	}
	if err := ValidateBranch(req.Branch); err != nil {
		return err
	}
	if req.Message == "" {
		return errors.Validation("message", "is required")
	}
	return ValidatePath(req.Path)
}

// Unconfigured is a Client without credentials
type Unconfigured struct{}

// CommitFile always fails
func (Unconfigured) CommitFile(context.Context, CommitRequest) (*CommitResult, error) {
	return nil, errors.New(errors.EServiceUnavailable, "version control client is not configured")
}

// IsConfigured implements Client
func (Unconfigured) IsConfigured() bool { return false }
