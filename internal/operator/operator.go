// Package operator manages the internal users who receive document
// notifications. Authentication lives elsewhere; this package only answers
// who is currently active.
package operator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// Operator is an admin user of the console
type Operator struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service provides operator lookups
type Service struct {
	db *db.DB
}

// NewService creates a new operator service
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// Create adds an active operator
func (s *Service) Create(ctx context.Context, email, displayName string) (*Operator, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.Validation("email", "must be a valid email address")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_users (email, display_name) VALUES (?, ?)
	`, email, db.NullString(displayName))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.Conflict("operator %s already exists", email)
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns one operator
func (s *Service) Get(ctx context.Context, id int64) (*Operator, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, role, is_active, created_at
		FROM admin_users WHERE id = ?
	`, id)
	op, err := scanOperator(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("operator #%d not found", id)
	}
	return op, err
}

// ListActive returns every active operator, oldest first
func (s *Service) ListActive(ctx context.Context) ([]Operator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, display_name, role, is_active, created_at
		FROM admin_users WHERE is_active = 1 ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var ops []Operator
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	return ops, rows.Err()
}

// SetActive enables or disables an operator
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE admin_users SET is_active = ? WHERE id = ?`, db.BoolToInt(active), id)
	if err != nil {
		return fmt.Errorf("update operator: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("operator #%d not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOperator(row scanner) (*Operator, error) {
	var op Operator
	var name sql.NullString
	var active int
	if err := row.Scan(&op.ID, &op.Email, &name, &op.Role, &active, &op.CreatedAt); err != nil {
		return nil, err
	}
	op.DisplayName = name.String
	op.Active = active != 0
	return &op, nil
}
