// Package template holds the fixed set of onboarding-document templates and
// the generator that renders them for a project.
package template

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/project"
)

// Category groups templates by intent
type Category string

const (
	CategoryPolicy    Category = "policy"
	CategoryProcedure Category = "procedure"
	CategoryHandbook  Category = "handbook"
)

// Template is one code-defined document template
type Template struct {
	Slug     string
	Title    string
	Category Category
	// Applies reports whether the template renders for a project. Nil means always.
	Applies func(p *project.Project) bool

	body *template.Template
}

// Info is the public description of a template
type Info struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
}

// Doc is a rendered template ready to be stored as a project fragment
type Doc struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Category     Category `json:"category"`
	Content      string   `json:"content"`
	DisplayOrder int      `json:"displayOrder"`
}

func hasTags(p *project.Project) bool { return len(p.Tags) > 0 }

func mustParse(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(strings.TrimSpace(body)))
}

// registry is built once and never modified. Declaration order is
// document order.
var registry = []Template{
	{
		Slug:     "company-identity",
		Title:    "Company Identity",
		Category: CategoryPolicy,
		body:     mustParse("company-identity", companyIdentityBody),
	},
	{
		Slug:     "overview",
		Title:    "Project Overview",
		Category: CategoryHandbook,
		body:     mustParse("overview", overviewBody),
	},
	{
		Slug:     "tech-stack",
		Title:    "Tech Stack",
		Category: CategoryHandbook,
		Applies:  hasTags,
		body:     mustParse("tech-stack", techStackBody),
	},
	{
		Slug:     "getting-started",
		Title:    "Getting Started",
		Category: CategoryProcedure,
		body:     mustParse("getting-started", gettingStartedBody),
	},
	{
		Slug:     "project-restrictions",
		Title:    "Project Restrictions",
		Category: CategoryPolicy,
		body:     mustParse("project-restrictions", restrictionsBody),
	},
	{
		Slug:     "unique-features",
		Title:    "Unique Features",
		Category: CategoryHandbook,
		body:     mustParse("unique-features", uniqueFeaturesBody),
	},
	{
		Slug:     "general-direction",
		Title:    "General Direction",
		Category: CategoryPolicy,
		body:     mustParse("general-direction", generalDirectionBody),
	},
}

var slugSet = func() map[string]bool {
	m := make(map[string]bool, len(registry))
	for _, t := range registry {
		m[t.Slug] = true
	}
	return m
}()

// List describes every template in declaration order
func List() []Info {
	out := make([]Info, len(registry))
	for i, t := range registry {
		out[i] = Info{Slug: t.Slug, Title: t.Title, Category: t.Category}
	}
	return out
}

// IsTemplateSlug reports whether slug belongs to a template
func IsTemplateSlug(slug string) bool {
	return slugSet[slug]
}

// Custom setting keys read by the templates
const (
	SettingRestrictions   = "restrictions"
	SettingUniqueFeatures = "uniqueFeatures"
)

// Options configure rendering
type Options struct {
	Organization  string
	DefaultOwner  string
	DefaultBranch string
	TargetPath    string
	Logger        *slog.Logger
}

// Generator renders templates for project snapshots. It performs no I/O.
type Generator struct {
	opts Options
	log  *slog.Logger
}

// NewGenerator creates a generator
func NewGenerator(opts Options) *Generator {
	if opts.Organization == "" {
		opts.Organization = "TriadBlue"
	}
	if opts.DefaultOwner == "" {
		opts.DefaultOwner = "triadblue"
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}
	if opts.TargetPath == "" {
		opts.TargetPath = "CLAUDE.md"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Generator{opts: opts, log: log}
}

type renderData struct {
	*project.Project
	Org          string
	Owner        string
	Branch       string
	RepoURL      string
	TargetPath   string
	StatusNote   string
	Restrictions []string
	Features     []string
}

// Generate renders every applicable template for p in declaration order.
// DisplayOrder is the position in the returned list.
func (g *Generator) Generate(p *project.Project) ([]Doc, error) {
	return g.render(p, false)
}

// GenerateAll renders every template, including those that do not apply to
// p, so fragments created from an earlier snapshot can be refreshed.
func (g *Generator) GenerateAll(p *project.Project) ([]Doc, error) {
	return g.render(p, true)
}

func (g *Generator) render(p *project.Project, all bool) ([]Doc, error) {
	data, err := g.prepare(p)
	if err != nil {
		return nil, err
	}

	var docs []Doc
	for _, t := range registry {
		if !all && t.Applies != nil && !t.Applies(p) {
			continue
		}
		var buf bytes.Buffer
		if err := t.body.Execute(&buf, data); err != nil {
			return nil, errors.Wrap(errors.EInternal, fmt.Sprintf("render template %s", t.Slug), err)
		}
		docs = append(docs, Doc{
			Slug:         t.Slug,
			Title:        t.Title,
			Category:     t.Category,
			Content:      strings.TrimSpace(buf.String()),
			DisplayOrder: len(docs),
		})
	}
	return docs, nil
}

func (g *Generator) prepare(p *project.Project) (*renderData, error) {
	if p == nil {
		return nil, errors.Validation("project", "is required")
	}
	if err := p.ValidateSnapshot(); err != nil {
		return nil, err
	}
	restrictions, err := settingList(p, SettingRestrictions)
	if err != nil {
		return nil, err
	}
	features, err := settingList(p, SettingUniqueFeatures)
	if err != nil {
		return nil, err
	}

	d := &renderData{
		Project:      p,
		Org:          g.opts.Organization,
		Owner:        p.Owner(g.opts.DefaultOwner),
		Branch:       p.Branch(g.opts.DefaultBranch),
		TargetPath:   g.opts.TargetPath,
		Restrictions: restrictions,
		Features:     features,
	}
	if p.HasRepo() {
		d.RepoURL = fmt.Sprintf("https://github.com/%s/%s", d.Owner, p.GithubRepo)
	}

	note, known := statusNote(p.Status, p.DisplayName)
	if !known {
		g.log.Warn("unknown project status, direction paragraph omitted",
			"project", p.Slug, "status", string(p.Status))
	}
	d.StatusNote = note
	return d, nil
}

// statusNote returns the direction paragraph for a status. Unknown statuses
// yield an empty paragraph and false.
func statusNote(s project.Status, name string) (string, bool) {
	switch s {
	case project.StatusActive:
		return name + " is live and actively developed. Prefer small, reviewed changes that keep production stable.", true
	case project.StatusArchived:
		return name + " is archived. Only make changes required for security or data retention, and do not add features.", true
	case project.StatusMaintenance:
		return name + " is in maintenance mode. Bug fixes and dependency updates are welcome; new features need approval first.", true
	case project.StatusDevelopment:
		return name + " is under active development and not yet in production. Breaking changes are acceptable while the design settles.", true
	case project.StatusPlanned:
		return name + " is planned. Focus on research notes, scaffolding and design documents before production code.", true
	default:
		return "", false
	}
}

// settingList reads a custom setting holding a string or a list of strings
func settingList(p *project.Project, key string) ([]string, error) {
	v, ok := p.CustomSettings[key]
	if !ok || v == nil {
		return nil, nil
	}
	field := "customSettings." + key
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Validation(field, "must contain only strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.Validation(field, "must be a string or an array of strings")
	}
}
