// Package project stores the projects whose onboarding documents are
// assembled and published. Document services read a Project as an
// immutable snapshot for the duration of one operation.
package project

import (
	"regexp"
	"strings"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// Status is the lifecycle state of a project
type Status string

// Status values
const (
	StatusActive      Status = "active"
	StatusArchived    Status = "archived"
	StatusMaintenance Status = "maintenance"
	StatusDevelopment Status = "development"
	StatusPlanned     Status = "planned"
)

// Statuses lists every known status in display order
var Statuses = []Status{StatusActive, StatusArchived, StatusMaintenance, StatusDevelopment, StatusPlanned}

// Known reports whether s is one of the defined statuses
func (s Status) Known() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Project is a portfolio project
type Project struct {
	ID              int64          `json:"id"`
	Slug            string         `json:"slug"`
	DisplayName     string         `json:"displayName"`
	Description     string         `json:"description,omitempty"`
	GithubRepo      string         `json:"githubRepo,omitempty"`
	GithubOwner     string         `json:"githubOwner,omitempty"`
	DefaultBranch   string         `json:"defaultBranch,omitempty"`
	ColorPrimary    string         `json:"colorPrimary,omitempty"`
	ColorAccent     string         `json:"colorAccent,omitempty"`
	ColorBackground string         `json:"colorBackground,omitempty"`
	IconURL         string         `json:"iconUrl,omitempty"`
	IconEmoji       string         `json:"iconEmoji,omitempty"`
	Status          Status         `json:"status"`
	DisplayOrder    int            `json:"displayOrder"`
	Visible         bool           `json:"visible"`
	Tags            []string       `json:"tags"`
	SubdomainURL    string         `json:"subdomainUrl,omitempty"`
	ProductionURL   string         `json:"productionUrl,omitempty"`
	CustomSettings  map[string]any `json:"customSettings"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// HasRepo reports whether a repository is bound to the project
func (p *Project) HasRepo() bool {
	return strings.TrimSpace(p.GithubRepo) != ""
}

// Owner returns the repository owner, or def when none is set
func (p *Project) Owner(def string) string {
	if p.GithubOwner != "" {
		return p.GithubOwner
	}
	return def
}

// Branch returns the default branch, or def when none is set
func (p *Project) Branch(def string) string {
	if p.DefaultBranch != "" {
		return p.DefaultBranch
	}
	return def
}

// ValidateSnapshot checks the fields document rendering depends on
func (p *Project) ValidateSnapshot() error {
	if p.Slug == "" {
		return errors.Validation("slug", "is required")
	}
	if p.DisplayName == "" {
		return errors.Validation("displayName", "is required")
	}
	if p.Status == "" {
		return errors.Validation("status", "is required")
	}
	return nil
}

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	hexPattern  = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	// GitHub account and repository names
	ownerPattern  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,37}[A-Za-z0-9])?$`)
	repoPattern   = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
	branchPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._/-]{0,199}$`)
)

// Field limits
const (
	MaxSlugLen  = 100
	MaxTitleLen = 200
)

// ValidateSlug checks a lowercase kebab-case identifier
func ValidateSlug(field, slug string) error {
	if slug == "" {
		return errors.Validation(field, "is required")
	}
	if len(slug) > MaxSlugLen {
		return errors.Validation(field, "must be at most 100 characters")
	}
	if !slugPattern.MatchString(slug) {
		return errors.Validation(field, "must be lowercase alphanumeric with hyphens, no leading/trailing hyphens")
	}
	return nil
}

// ValidateTitle checks a display title
func ValidateTitle(field, title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.Validation(field, "is required")
	}
	if len([]rune(title)) > MaxTitleLen {
		return errors.Validation(field, "must be at most 200 characters")
	}
	return nil
}

func validateColor(field, c string) error {
	if c != "" && !hexPattern.MatchString(c) {
		return errors.Validation(field, "must be a valid hex color (e.g. #FF44CC)")
	}
	return nil
}

func validateRepository(p *Project) error {
	if p.GithubOwner != "" && !ownerPattern.MatchString(p.GithubOwner) {
		return errors.Validation("githubOwner", "must be a GitHub account name")
	}
	if p.GithubRepo != "" && (!repoPattern.MatchString(p.GithubRepo) || p.GithubRepo == "." || p.GithubRepo == "..") {
		return errors.Validation("githubRepo", "must be a GitHub repository name")
	}
	b := p.DefaultBranch
	if b != "" && (!branchPattern.MatchString(b) || strings.Contains(b, "..") ||
		strings.Contains(b, "//") || strings.HasSuffix(b, "/") || strings.HasSuffix(b, ".lock")) {
		return errors.Validation("defaultBranch", "is not a valid branch name")
	}
	return nil
}

func validateStatus(s Status) error {
	if !s.Known() {
		return errors.Validation("status", "must be one of active, archived, maintenance, development, planned")
	}
	return nil
}
