package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

const schemaVersion = 3

// Base tables (v1)
const schemaBase = `
-- Metadata
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Projects
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    description TEXT,
    github_repo TEXT,
    github_owner TEXT,
    default_branch TEXT DEFAULT 'main',
    color_primary TEXT DEFAULT '#0000FF',
    color_accent TEXT DEFAULT '#FF44CC',
    color_background TEXT,
    icon_url TEXT,
    icon_emoji TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    display_order INTEGER NOT NULL DEFAULT 0,
    visible INTEGER NOT NULL DEFAULT 1,
    tags TEXT NOT NULL DEFAULT '[]',
    subdomain_url TEXT,
    production_url TEXT,
    custom_settings TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_projects_order ON projects(display_order);

-- Operators
CREATE TABLE IF NOT EXISTS admin_users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT,
    role TEXT NOT NULL DEFAULT 'admin',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Audit log
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id INTEGER,
    entity_slug TEXT,
    previous_value TEXT,
    new_value TEXT,
    metadata TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);
`

// v2: document fragments and push history
const schemaV2 = `
-- Shared fragments (included in every assembled document)
CREATE TABLE IF NOT EXISTS shared_docs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_shared_docs_order ON shared_docs(enabled, display_order);

-- Project fragments
CREATE TABLE IF NOT EXISTS project_docs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(project_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_project_docs_order ON project_docs(project_id, enabled, display_order);

-- Push history (append-only)
CREATE TABLE IF NOT EXISTS doc_push_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    target_repo TEXT NOT NULL,
    target_path TEXT NOT NULL,
    commit_sha TEXT,
    commit_url TEXT,
    assembled_content TEXT NOT NULL,
    status TEXT NOT NULL,
    error_message TEXT,
    pushed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_doc_push_log_project ON doc_push_log(project_id, pushed_at);

-- Notifications
CREATE TABLE IF NOT EXISTS notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES admin_users(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    metadata TEXT,
    project_id INTEGER REFERENCES projects(id) ON DELETE SET NULL,
    read INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read);
`

// DB wraps sql.DB with helper methods
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}

	d := &DB{DB: db, path: path}

	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return d, nil
}

// Init initializes the database schema
func (d *DB) Init() error {
	if _, err := d.Exec(schemaBase); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	if _, err := d.Exec(schemaV2); err != nil {
		return fmt.Errorf("apply v2 schema: %w", err)
	}

	if err := d.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	_, err := d.Exec(`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, CURRENT_TIMESTAMP)`, schemaVersion)
	if err != nil {
		return fmt.Errorf("store schema version: %w", err)
	}

	return nil
}

// migrate runs column migrations for databases created by older versions
func (d *DB) migrate() error {
	currentVersion, _ := d.GetVersion()

	// v2 -> v3: fragment origin and push trigger/actor
	if currentVersion < 3 {
		// ALTER fails when the column already exists; that is the expected no-op
		d.Exec(`ALTER TABLE project_docs ADD COLUMN origin TEXT NOT NULL DEFAULT 'manual'`)
		d.Exec(`ALTER TABLE doc_push_log ADD COLUMN push_trigger TEXT NOT NULL DEFAULT 'manual'`)
		d.Exec(`ALTER TABLE doc_push_log ADD COLUMN pushed_by INTEGER`)
	}

	return nil
}

// GetVersion returns current schema version
func (d *DB) GetVersion() (int, error) {
	var version int
	err := d.QueryRow(`SELECT CAST(value AS INTEGER) FROM metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// BoolToInt converts a bool to SQLite's 0/1 representation
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NullString returns a NULL for empty strings
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
