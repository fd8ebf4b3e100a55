package fragment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// Service handles fragment persistence
type Service struct {
	db    *db.DB
	audit audit.Recorder
}

// NewService creates a new fragment service
func NewService(database *db.DB, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{db: database, audit: recorder}
}

// scope selects shared fragments (projectID 0) or one project's fragments
type scope struct {
	projectID int64
}

func (sc scope) shared() bool { return sc.projectID == 0 }

func (sc scope) table() string {
	if sc.shared() {
		return "shared_docs"
	}
	return "project_docs"
}

func (sc scope) entity() string {
	if sc.shared() {
		return audit.EntitySharedDoc
	}
	return audit.EntityProjectDoc
}

func (sc scope) columns() string {
	if sc.shared() {
		return `id, 0, slug, title, content, display_order, enabled, '', created_at, updated_at`
	}
	return `id, project_id, slug, title, content, display_order, enabled, origin, created_at, updated_at`
}

// filter returns the scope condition to append after a WHERE clause
func (sc scope) filter() (string, []interface{}) {
	if sc.shared() {
		return "", nil
	}
	return ` AND project_id = ?`, []interface{}{sc.projectID}
}

// ListSharedDocs returns shared fragments in assembly order
func (s *Service) ListSharedDocs(ctx context.Context, enabledOnly bool) ([]Fragment, error) {
	return s.list(ctx, scope{}, enabledOnly)
}

// GetSharedDoc returns one shared fragment
func (s *Service) GetSharedDoc(ctx context.Context, id int64) (*Fragment, error) {
	return s.get(ctx, scope{}, id)
}

// CreateSharedDoc adds a shared fragment
func (s *Service) CreateSharedDoc(ctx context.Context, in Input) (*Fragment, error) {
	return s.create(ctx, scope{}, in)
}

// UpdateSharedDoc applies a patch to a shared fragment
func (s *Service) UpdateSharedDoc(ctx context.Context, id int64, p Patch) (*Fragment, error) {
	return s.update(ctx, scope{}, id, p)
}

// DeleteSharedDoc permanently removes a shared fragment
func (s *Service) DeleteSharedDoc(ctx context.Context, id int64) error {
	return s.delete(ctx, scope{}, id)
}

// ReorderSharedDocs sets each listed fragment's display order to its index
func (s *Service) ReorderSharedDocs(ctx context.Context, ids []int64) ([]Fragment, error) {
	return s.reorder(ctx, scope{}, ids)
}

// ListProjectDocs returns a project's fragments in assembly order
func (s *Service) ListProjectDocs(ctx context.Context, projectID int64, enabledOnly bool) ([]Fragment, error) {
	return s.list(ctx, scope{projectID}, enabledOnly)
}

// GetProjectDoc returns one project fragment
func (s *Service) GetProjectDoc(ctx context.Context, projectID, id int64) (*Fragment, error) {
	return s.get(ctx, scope{projectID}, id)
}

// CreateProjectDoc adds an operator-authored project fragment
func (s *Service) CreateProjectDoc(ctx context.Context, projectID int64, in Input) (*Fragment, error) {
	return s.create(ctx, scope{projectID}, in)
}

// UpdateProjectDoc applies a patch to a project fragment
func (s *Service) UpdateProjectDoc(ctx context.Context, projectID, id int64, p Patch) (*Fragment, error) {
	return s.update(ctx, scope{projectID}, id, p)
}

// DeleteProjectDoc permanently removes a project fragment
func (s *Service) DeleteProjectDoc(ctx context.Context, projectID, id int64) error {
	return s.delete(ctx, scope{projectID}, id)
}

// ReorderProjectDocs sets each listed fragment's display order to its index
func (s *Service) ReorderProjectDocs(ctx context.Context, projectID int64, ids []int64) ([]Fragment, error) {
	return s.reorder(ctx, scope{projectID}, ids)
}

// GetProjectDocBySlug returns the project fragment with slug
func (s *Service) GetProjectDocBySlug(ctx context.Context, projectID int64, slug string) (*Fragment, error) {
	sc := scope{projectID}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sc.columns()+` FROM project_docs WHERE project_id = ? AND slug = ?`, projectID, slug)
	f, err := scanFragment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("project doc %q not found", slug)
	}
	return f, err
}

// InsertIfAbsent inserts f unless the project already has a fragment with
// the same slug. It reports whether a row was created.
func (s *Service) InsertIfAbsent(ctx context.Context, projectID int64, f Fragment) (bool, error) {
	if f.Origin == "" {
		f.Origin = OriginGenerated
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO project_docs (project_id, slug, title, content, display_order, enabled, origin)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(project_id, slug) DO NOTHING
	`, projectID, f.Slug, f.Title, f.Content, f.DisplayOrder, string(f.Origin))
	if err != nil {
		return false, fmt.Errorf("insert project doc %s: %w", f.Slug, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Overwrite replaces title, content and display order of the fragment with
// slug. The enabled flag is kept. It reports whether a row matched.
func (s *Service) Overwrite(ctx context.Context, projectID int64, slug, title, content string, order int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_docs
		SET title = ?, content = ?, display_order = ?, origin = ?, updated_at = CURRENT_TIMESTAMP
		WHERE project_id = ? AND slug = ?
	`, title, content, order, string(OriginGenerated), projectID, slug)
	if err != nil {
		return false, fmt.Errorf("overwrite project doc %s: %w", slug, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// UpdateContent replaces only the content of the fragment with slug. It
// reports whether a row matched.
func (s *Service) UpdateContent(ctx context.Context, projectID int64, slug, content string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_docs SET content = ?, updated_at = CURRENT_TIMESTAMP
		WHERE project_id = ? AND slug = ?
	`, content, projectID, slug)
	if err != nil {
		return false, fmt.Errorf("update project doc %s: %w", slug, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// CountProjectDocs returns how many fragments a project has
func (s *Service) CountProjectDocs(ctx context.Context, projectID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_docs WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count project docs: %w", err)
	}
	return n, nil
}

func (s *Service) list(ctx context.Context, sc scope, enabledOnly bool) ([]Fragment, error) {
	cond, args := sc.filter()
	query := `SELECT ` + sc.columns() + ` FROM ` + sc.table() + ` WHERE 1 = 1` + cond
	if enabledOnly {
		query += ` AND enabled = 1`
	}
	query += ` ORDER BY display_order ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sc.table(), err)
	}
	defer rows.Close()

	fragments := []Fragment{}
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, *f)
	}
	return fragments, rows.Err()
}

func (s *Service) get(ctx context.Context, sc scope, id int64) (*Fragment, error) {
	cond, args := sc.filter()
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sc.columns()+` FROM `+sc.table()+` WHERE id = ?`+cond,
		append([]interface{}{id}, args...)...)
	f, err := scanFragment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("doc #%d not found", id)
	}
	return f, err
}

func (s *Service) create(ctx context.Context, sc scope, in Input) (*Fragment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	order := 0
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	var result sql.Result
	var err error
	if sc.shared() {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO shared_docs (slug, title, content, display_order, enabled)
			VALUES (?, ?, ?, ?, ?)
		`, in.Slug, in.Title, in.Content, order, db.BoolToInt(enabled))
	} else {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO project_docs (project_id, slug, title, content, display_order, enabled, origin)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sc.projectID, in.Slug, in.Title, in.Content, order, db.BoolToInt(enabled), string(OriginManual))
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.Conflict("a doc with slug %q already exists", in.Slug)
		}
		return nil, fmt.Errorf("create %s: %w", sc.table(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	f, err := s.get(ctx, sc, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: sc.entity(),
		EntityID:   f.ID,
		EntitySlug: f.Slug,
		NewValue:   f,
	})
	return f, nil
}

func (s *Service) update(ctx context.Context, sc scope, id int64, p Patch) (*Fragment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prev, err := s.get(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if p.empty() {
		return prev, nil
	}

	next := *prev
	if p.Slug != nil {
		next.Slug = *p.Slug
	}
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Content != nil {
		next.Content = *p.Content
	}
	if p.DisplayOrder != nil {
		next.DisplayOrder = *p.DisplayOrder
	}
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE `+sc.table()+`
		SET slug = ?, title = ?, content = ?, display_order = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, next.Slug, next.Title, next.Content, next.DisplayOrder, db.BoolToInt(next.Enabled), id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.Conflict("a doc with slug %q already exists", next.Slug)
		}
		return nil, fmt.Errorf("update %s: %w", sc.table(), err)
	}

	updated, err := s.get(ctx, sc, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:        audit.ActionUpdate,
		EntityType:    sc.entity(),
		EntityID:      id,
		EntitySlug:    updated.Slug,
		PreviousValue: prev,
		NewValue:      updated,
	})
	return updated, nil
}

func (s *Service) delete(ctx context.Context, sc scope, id int64) error {
	prev, err := s.get(ctx, sc, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+sc.table()+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete %s: %w", sc.table(), err)
	}

	s.audit.Record(ctx, audit.Entry{
		Action:        audit.ActionDelete,
		EntityType:    sc.entity(),
		EntityID:      id,
		EntitySlug:    prev.Slug,
		PreviousValue: prev,
	})
	return nil
}

func (s *Service) reorder(ctx context.Context, sc scope, ids []int64) ([]Fragment, error) {
	if len(ids) == 0 {
		return nil, errors.Validation("docIds", "must provide at least one doc ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	cond, args := sc.filter()
	for i, id := range ids {
		if id <= 0 {
			return nil, errors.Validation("docIds", "must contain positive ids")
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE `+sc.table()+` SET display_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`+cond,
			append([]interface{}{i, id}, args...)...)
		if err != nil {
			return nil, fmt.Errorf("reorder %s: %w", sc.table(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}

	fragments, err := s.list(ctx, sc, false)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"docIds": ids}
	if !sc.shared() {
		meta["projectId"] = sc.projectID
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionReorder,
		EntityType: sc.entity(),
		Metadata:   meta,
	})
	return fragments, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFragment(row scanner) (*Fragment, error) {
	var f Fragment
	var enabled int
	var origin string
	err := row.Scan(&f.ID, &f.ProjectID, &f.Slug, &f.Title, &f.Content, &f.DisplayOrder,
		&enabled, &origin, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Enabled = enabled != 0
	f.Origin = Origin(origin)
	return &f, nil
}
