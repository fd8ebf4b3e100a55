// Package audit records who changed what. Recording is best effort: a failed
// write is logged and never returned to the caller.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/db"
)

// Actions
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionReorder = "reorder"
	ActionPublish = "publish"
)

// Entity types
const (
	EntityProject    = "project"
	EntitySharedDoc  = "shared_doc"
	EntityProjectDoc = "project_doc"
	EntityDocPush    = "doc_push"
)

// Entry is one audit record
type Entry struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"userId,omitempty"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entityType"`
	EntityID      int64          `json:"entityId,omitempty"`
	EntitySlug    string         `json:"entitySlug,omitempty"`
	PreviousValue any            `json:"previousValue,omitempty"`
	NewValue      any            `json:"newValue,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Recorder is the audit sink used by the document services
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Service writes audit entries to SQLite
type Service struct {
	db  *db.DB
	log *slog.Logger
}

// NewService creates a new audit service
func NewService(database *db.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: database, log: logger}
}

type userKey struct{}

// WithUser attaches the acting operator id to ctx
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the acting operator id, or 0
func UserFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey{}).(int64)
	return id
}

// Record stores e. Failures are logged only.
func (s *Service) Record(ctx context.Context, e Entry) {
	if e.UserID == 0 {
		e.UserID = UserFrom(ctx)
	}
	if err := s.insert(ctx, e); err != nil {
		s.log.Warn("audit record failed",
			"action", e.Action,
			"entity", e.EntityType,
			"slug", e.EntitySlug,
			"error", err)
	}
}

func (s *Service) insert(ctx context.Context, e Entry) error {
	prev, err := marshalNullable(e.PreviousValue)
	if err != nil {
		return err
	}
	next, err := marshalNullable(e.NewValue)
	if err != nil {
		return err
	}
	var meta sql.NullString
	if len(e.Metadata) > 0 {
		if meta, err = marshalNullable(e.Metadata); err != nil {
			return err
		}
	}

	var userID, entityID sql.NullInt64
	if e.UserID > 0 {
		userID = sql.NullInt64{Int64: e.UserID, Valid: true}
	}
	if e.EntityID > 0 {
		entityID = sql.NullInt64{Int64: e.EntityID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (user_id, action, entity_type, entity_id, entity_slug, previous_value, new_value, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, e.Action, e.EntityType, entityID, db.NullString(e.EntitySlug), prev, next, meta)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries for an entity type, newest first.
// An empty entityType lists everything.
func (s *Service) List(ctx context.Context, entityType string, limit int) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, entity_slug, previous_value, new_value, metadata, created_at
		FROM audit_log
	`
	var args []interface{}
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var userID, entityID sql.NullInt64
		var slug, prev, next, meta sql.NullString
		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.EntityType, &entityID, &slug, &prev, &next, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = userID.Int64
		e.EntityID = entityID.Int64
		e.EntitySlug = slug.String
		if prev.Valid {
			e.PreviousValue = json.RawMessage(prev.String)
		}
		if next.Valid {
			e.NewValue = json.RawMessage(next.String)
		}
		if meta.Valid {
			json.Unmarshal([]byte(meta.String), &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalNullable(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode audit value: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Nop discards entries
type Nop struct{}

// Record implements Recorder
func (Nop) Record(context.Context, Entry) {}
