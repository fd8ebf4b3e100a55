package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// CreateInput holds the fields accepted when creating a project
type CreateInput struct {
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
	Status          Status         `json:"status,omitempty"`
	DisplayOrder    int            `json:"displayOrder,omitempty"`
	Visible         *bool          `json:"visible,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	SubdomainURL    string         `json:"subdomainUrl,omitempty"`
	ProductionURL   string         `json:"productionUrl,omitempty"`
	CustomSettings  map[string]any `json:"customSettings,omitempty"`
}

// UpdateInput holds optional field changes. Nil fields are left as is.
type UpdateInput struct {
	DisplayName     *string         `json:"displayName,omitempty"`
	Description     *string         `json:"description,omitempty"`
	GithubRepo      *string         `json:"githubRepo,omitempty"`
	GithubOwner     *string         `json:"githubOwner,omitempty"`
	DefaultBranch   *string         `json:"defaultBranch,omitempty"`
	ColorPrimary    *string         `json:"colorPrimary,omitempty"`
	ColorAccent     *string         `json:"colorAccent,omitempty"`
	ColorBackground *string         `json:"colorBackground,omitempty"`
	IconURL         *string         `json:"iconUrl,omitempty"`
	IconEmoji       *string         `json:"iconEmoji,omitempty"`
	Status          *Status         `json:"status,omitempty"`
	DisplayOrder    *int            `json:"displayOrder,omitempty"`
	Visible         *bool           `json:"visible,omitempty"`
	Tags            *[]string       `json:"tags,omitempty"`
	SubdomainURL    *string         `json:"subdomainUrl,omitempty"`
	ProductionURL   *string         `json:"productionUrl,omitempty"`
	CustomSettings  *map[string]any `json:"customSettings,omitempty"`
}

// Service handles project persistence
type Service struct {
	db    *db.DB
	audit audit.Recorder
}

// NewService creates a new project service
func NewService(database *db.DB, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{db: database, audit: recorder}
}

const projectColumns = `
	id, slug, display_name, description, github_repo, github_owner, default_branch,
	color_primary, color_accent, color_background, icon_url, icon_emoji,
	status, display_order, visible, tags, subdomain_url, production_url,
	custom_settings, created_at, updated_at
`

var numericID = regexp.MustCompile(`^\d+$`)

// Get resolves a project by numeric id or slug
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Project, error) {
	if numericID.MatchString(idOrSlug) {
		id, err := strconv.ParseInt(idOrSlug, 10, 64)
		if err == nil {
			return s.GetByID(ctx, id)
		}
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, idOrSlug)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("project %q not found", idOrSlug)
	}
	return p, err
}

// GetByID returns the project with the given id
func (s *Service) GetByID(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("project #%d not found", id)
	}
	return p, err
}

// List returns all projects ordered by display order
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY display_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Create validates and inserts a new project
func (s *Service) Create(ctx context.Context, in CreateInput) (*Project, error) {
	p := &Project{
		Slug:            in.Slug,
		DisplayName:     in.DisplayName,
		Description:     in.Description,
		GithubRepo:      in.GithubRepo,
		GithubOwner:     in.GithubOwner,
		DefaultBranch:   in.DefaultBranch,
		ColorPrimary:    in.ColorPrimary,
		ColorAccent:     in.ColorAccent,
		ColorBackground: in.ColorBackground,
		IconURL:         in.IconURL,
		IconEmoji:       in.IconEmoji,
		Status:          in.Status,
		DisplayOrder:    in.DisplayOrder,
		Visible:         true,
		Tags:            in.Tags,
		SubdomainURL:    in.SubdomainURL,
		ProductionURL:   in.ProductionURL,
		CustomSettings:  in.CustomSettings,
	}
	if in.Visible != nil {
		p.Visible = *in.Visible
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.DefaultBranch == "" {
		p.DefaultBranch = "main"
	}
	if p.ColorPrimary == "" {
		p.ColorPrimary = "#0000FF"
	}
	if p.ColorAccent == "" {
		p.ColorAccent = "#FF44CC"
	}
	if err := ValidateSlug("slug", p.Slug); err != nil {
		return nil, err
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	tags, settings, err := encodeCollections(p)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (
			slug, display_name, description, github_repo, github_owner, default_branch,
			color_primary, color_accent, color_background, icon_url, icon_emoji,
			status, display_order, visible, tags, subdomain_url, production_url, custom_settings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Slug, p.DisplayName, db.NullString(p.Description), db.NullString(p.GithubRepo),
		db.NullString(p.GithubOwner), p.DefaultBranch, p.ColorPrimary, p.ColorAccent,
		db.NullString(p.ColorBackground), db.NullString(p.IconURL), db.NullString(p.IconEmoji),
		string(p.Status), p.DisplayOrder, db.BoolToInt(p.Visible), tags,
		db.NullString(p.SubdomainURL), db.NullString(p.ProductionURL), settings)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.Conflict("project with slug %q already exists", p.Slug)
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityProject,
		EntityID:   created.ID,
		EntitySlug: created.Slug,
		NewValue:   created,
	})
	return created, nil
}

// Update applies in to the project identified by idOrSlug
func (s *Service) Update(ctx context.Context, idOrSlug string, in UpdateInput) (*Project, error) {
	prev, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	p := *prev
	applyUpdate(&p, in)

	if err := validate(&p); err != nil {
		return nil, err
	}
	tags, settings, err := encodeCollections(&p)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET
			display_name = ?, description = ?, github_repo = ?, github_owner = ?, default_branch = ?,
			color_primary = ?, color_accent = ?, color_background = ?, icon_url = ?, icon_emoji = ?,
			status = ?, display_order = ?, visible = ?, tags = ?, subdomain_url = ?, production_url = ?,
			custom_settings = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.DisplayName, db.NullString(p.Description), db.NullString(p.GithubRepo),
		db.NullString(p.GithubOwner), p.DefaultBranch, p.ColorPrimary, p.ColorAccent,
		db.NullString(p.ColorBackground), db.NullString(p.IconURL), db.NullString(p.IconEmoji),
		string(p.Status), p.DisplayOrder, db.BoolToInt(p.Visible), tags,
		db.NullString(p.SubdomainURL), db.NullString(p.ProductionURL), settings, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	updated, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:        audit.ActionUpdate,
		EntityType:    audit.EntityProject,
		EntityID:      updated.ID,
		EntitySlug:    updated.Slug,
		PreviousValue: prev,
		NewValue:      updated,
	})
	return updated, nil
}

func applyUpdate(p *Project, in UpdateInput) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&p.DisplayName, in.DisplayName)
	setString(&p.Description, in.Description)
	setString(&p.GithubRepo, in.GithubRepo)
	setString(&p.GithubOwner, in.GithubOwner)
	setString(&p.DefaultBranch, in.DefaultBranch)
	setString(&p.ColorPrimary, in.ColorPrimary)
	setString(&p.ColorAccent, in.ColorAccent)
	setString(&p.ColorBackground, in.ColorBackground)
	setString(&p.IconURL, in.IconURL)
	setString(&p.IconEmoji, in.IconEmoji)
	setString(&p.SubdomainURL, in.SubdomainURL)
	setString(&p.ProductionURL, in.ProductionURL)
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.DisplayOrder != nil {
		p.DisplayOrder = *in.DisplayOrder
	}
	if in.Visible != nil {
		p.Visible = *in.Visible
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.CustomSettings != nil {
		p.CustomSettings = *in.CustomSettings
	}
}

func validate(p *Project) error {
	if err := ValidateTitle("displayName", p.DisplayName); err != nil {
		return err
	}
	if err := validateStatus(p.Status); err != nil {
		return err
	}
	if p.DisplayOrder < 0 {
		return errors.Validation("displayOrder", "must be zero or greater")
	}
	if err := validateRepository(p); err != nil {
		return err
	}
	for field, c := range map[string]string{
		"colorPrimary":    p.ColorPrimary,
		"colorAccent":     p.ColorAccent,
		"colorBackground": p.ColorBackground,
	} {
		if err := validateColor(field, c); err != nil {
			return err
		}
	}
	for _, tag := range p.Tags {
		if tag == "" {
			return errors.Validation("tags", "must not contain empty values")
		}
	}
	return nil
}

func encodeCollections(p *Project) (string, string, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return "", "", errors.Validation("tags", err.Error())
	}
	settings := p.CustomSettings
	if settings == nil {
		settings = map[string]any{}
	}
	sb, err := json.Marshal(settings)
	if err != nil {
		return "", "", errors.Validation("customSettings", err.Error())
	}
	return string(tb), string(sb), nil
}

// DecodeTags parses a stored tag list. Anything other than a JSON array of
// strings is rejected.
func DecodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Validation("tags", "must be an array of strings")
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var description, repo, owner, branch, colorBg, iconURL, iconEmoji, subdomain, production sql.NullString
	var status, tags, settings string
	var visible int

	err := row.Scan(&p.ID, &p.Slug, &p.DisplayName, &description, &repo, &owner, &branch,
		&p.ColorPrimary, &p.ColorAccent, &colorBg, &iconURL, &iconEmoji,
		&status, &p.DisplayOrder, &visible, &tags, &subdomain, &production,
		&settings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.GithubRepo = repo.String
	p.GithubOwner = owner.String
	p.DefaultBranch = branch.String
	p.ColorBackground = colorBg.String
	p.IconURL = iconURL.String
	p.IconEmoji = iconEmoji.String
	p.SubdomainURL = subdomain.String
	p.ProductionURL = production.String
	p.Status = Status(status)
	p.Visible = visible != 0

	if p.Tags, err = DecodeTags(tags); err != nil {
		return nil, err
	}
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &p.CustomSettings); err != nil {
			return nil, errors.Validation("customSettings", "must be an object")
		}
	}
	if p.CustomSettings == nil {
		p.CustomSettings = map[string]any{}
	}
	return &p, nil
}
