// Package pushlog is the append-only history of publish attempts.
package pushlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// Status is the outcome of a publish attempt
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Trigger records what started a publish attempt
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerAuto   Trigger = "auto"
)

// Entry is one publish attempt. Entries are never updated.
type Entry struct {
	ID               int64     `json:"id"`
	ProjectID        int64     `json:"projectId"`
	TargetRepo       string    `json:"targetRepo"`
	TargetPath       string    `json:"targetPath"`
	CommitSHA        *string   `json:"commitSha"`
	CommitURL        *string   `json:"commitUrl"`
	AssembledContent string    `json:"assembledContent"`
	Status           Status    `json:"status"`
	ErrorMessage     *string   `json:"errorMessage"`
	Trigger          Trigger   `json:"trigger"`
	PushedBy         int64     `json:"pushedBy,omitempty"`
	PushedAt         time.Time `json:"pushedAt"`
}

// Page is one slice of a project's history
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Stats summarises a project's history
type Stats struct {
	Total        int        `json:"total"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	LastPushedAt *time.Time `json:"lastPushedAt,omitempty"`
	LastStatus   Status     `json:"lastStatus,omitempty"`
}

// Limits bound history page sizes
type Limits struct {
	Default int
	Max     int
}

// Service reads and appends push history
type Service struct {
	db     *db.DB
	limits Limits
	now    func() time.Time
}

// NewService creates a push history service. Zero limits fall back to 20
// and 100.
func NewService(database *db.DB, limits Limits) *Service {
	if limits.Default <= 0 {
		limits.Default = 20
	}
	if limits.Max <= 0 {
		limits.Max = 100
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
	}
	return &Service{db: database, limits: limits, now: time.Now}
}

// SetClock replaces the time source used for PushedAt
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Append records an attempt and returns it with id and timestamp set
func (s *Service) Append(ctx context.Context, e Entry) (*Entry, error) {
	if e.Status != StatusSuccess && e.Status != StatusError {
		return nil, errors.Validation("status", "must be success or error")
	}
	if e.Trigger == "" {
		e.Trigger = TriggerManual
	}
	if e.PushedAt.IsZero() {
		e.PushedAt = s.now()
	}
	e.PushedAt = e.PushedAt.UTC()

	var pushedBy sql.NullInt64
	if e.PushedBy > 0 {
		pushedBy = sql.NullInt64{Int64: e.PushedBy, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_push_log (
			project_id, target_repo, target_path, commit_sha, commit_url,
			assembled_content, status, error_message, push_trigger, pushed_by, pushed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ProjectID, e.TargetRepo, e.TargetPath, nullable(e.CommitSHA), nullable(e.CommitURL),
		e.AssembledContent, string(e.Status), nullable(e.ErrorMessage), string(e.Trigger),
		pushedBy, e.PushedAt)
	if err != nil {
		return nil, fmt.Errorf("append push log: %w", err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns a page of a project's history, newest first. limit is
// clamped to [1, Max] with Default used for non-positive values.
func (s *Service) List(ctx context.Context, projectID int64, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = s.limits.Default
	}
	if limit > s.limits.Max {
		limit = s.limits.Max
	}
	if offset < 0 {
		offset = 0
	}

	page := &Page{Entries: []Entry{}, Limit: limit, Offset: offset}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_push_log WHERE project_id = ?`, projectID).Scan(&page.Total)
	if err != nil {
		return nil, fmt.Errorf("count push log: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, target_repo, target_path, commit_sha, commit_url,
		       assembled_content, status, error_message, push_trigger, pushed_by, pushed_at
		FROM doc_push_log
		WHERE project_id = ?
		ORDER BY pushed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list push log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var sha, url, msg sql.NullString
		var status, trigger string
		var pushedBy sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TargetRepo, &e.TargetPath, &sha, &url,
			&e.AssembledContent, &status, &msg, &trigger, &pushedBy, &e.PushedAt); err != nil {
			return nil, err
		}
		e.CommitSHA = ptr(sha)
		e.CommitURL = ptr(url)
		e.ErrorMessage = ptr(msg)
		e.Status = Status(status)
		e.Trigger = Trigger(trigger)
		e.PushedBy = pushedBy.Int64
		page.Entries = append(page.Entries, e)
	}
	return page, rows.Err()
}

// Stats summarises a project's history
func (s *Service) Stats(ctx context.Context, projectID int64) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		FROM doc_push_log WHERE project_id = ?
	`, projectID).Scan(&st.Total, &st.Succeeded, &st.Failed)
	if err != nil {
		return nil, fmt.Errorf("push log stats: %w", err)
	}
	if st.Total == 0 {
		return &st, nil
	}

	var last time.Time
	var status string
	err = s.db.QueryRowContext(ctx, `
		SELECT pushed_at, status FROM doc_push_log
		WHERE project_id = ? ORDER BY pushed_at DESC, id DESC LIMIT 1
	`, projectID).Scan(&last, &status)
	if err != nil {
		return nil, fmt.Errorf("last push: %w", err)
	}
	st.LastPushedAt = &last
	st.LastStatus = Status(status)
	return &st, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}
