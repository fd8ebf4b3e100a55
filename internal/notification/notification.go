// Package notification stores in-app notifications for operators and fans
// document events out to every active operator.
package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/operator"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
)

// Notification types
const (
	TypeDocsGenerated = "docs_generated"
	TypeDocsPushed    = "docs_pushed"
)

// Metadata keys
const (
	MetaProjectID   = "projectId"
	MetaProjectSlug = "projectSlug"
	MetaBatchID     = "batchId"
	// MetaRequiresAck asks the client to show a view that must be acknowledged
	MetaRequiresAck = "requiresAck"
)

// Notification is one stored notification
type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ProjectID *int64         `json:"projectId"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Message is what gets delivered to a user
type Message struct {
	Type      string
	Title     string
	Message   string
	Metadata  map[string]any
	ProjectID int64
}

// Sink delivers a message to one user
type Sink interface {
	Notify(ctx context.Context, userID int64, m Message) error
}

// Service stores notifications in SQLite
type Service struct {
	db *db.DB
}

// NewService creates a notification store
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// Notify stores m for userID
func (s *Service) Notify(ctx context.Context, userID int64, m Message) error {
	var meta sql.NullString
	if len(m.Metadata) > 0 {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("encode notification metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}
	var projectID sql.NullInt64
	if m.ProjectID > 0 {
		projectID = sql.NullInt64{Int64: m.ProjectID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, metadata, project_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, m.Type, m.Title, m.Message, meta, projectID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List returns a user's notifications newest first, with the unread count
// among them. limit defaults to 50 and is capped at 200.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]Notification, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, metadata, project_id, read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := []Notification{}
	unread := 0
	for rows.Next() {
		var n Notification
		var meta sql.NullString
		var projectID sql.NullInt64
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &meta, &projectID, &read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if meta.Valid {
			json.Unmarshal([]byte(meta.String), &n.Metadata)
		}
		if projectID.Valid {
			id := projectID.Int64
			n.ProjectID = &id
		}
		n.Read = read != 0
		if !n.Read {
			unread++
		}
		list = append(list, n)
	}
	return list, unread, rows.Err()
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("notification #%d not found", id)
	}
	return nil
}

// Operators lists the users a broadcast goes to
type Operators interface {
	ListActive(ctx context.Context) ([]operator.Operator, error)
}

// Broadcaster sends one message to every active operator
type Broadcaster struct {
	ops    Operators
	sink   Sink
	events *events.Publisher
	log    *slog.Logger
}

// NewBroadcaster creates a broadcaster. pub may be nil.
func NewBroadcaster(ops Operators, sink Sink, pub *events.Publisher, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{ops: ops, sink: sink, events: pub, log: logger}
}

// Broadcast delivers m to every active operator and returns how many
// deliveries succeeded. Failures are logged and skipped.
func (b *Broadcaster) Broadcast(ctx context.Context, m Message) int {
	ops, err := b.ops.ListActive(ctx)
	if err != nil {
		b.log.Warn("list operators for notification failed", "type", m.Type, "error", err)
		return 0
	}

	batch := uuid.NewString()
	meta := make(map[string]any, len(m.Metadata)+1)
	for k, v := range m.Metadata {
		meta[k] = v
	}
	meta[MetaBatchID] = batch
	m.Metadata = meta

	sent := 0
	for _, op := range ops {
		if err := b.sink.Notify(ctx, op.ID, m); err != nil {
			b.log.Warn("notification failed", "type", m.Type, "user", op.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		slug, _ := m.Metadata[MetaProjectSlug].(string)
		b.events.PublishNotification(m.ProjectID, slug, events.NotificationData{
			BatchID:    batch,
			Type:       m.Type,
			Title:      m.Title,
			Recipients: sent,
		})
	}
	return sent
}
