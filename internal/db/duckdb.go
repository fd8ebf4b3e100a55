package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const duckDBSchemaVersion = 1

// Analytics mirror of the document tables. Column names match SQLite so
// rows can be copied by name.
const duckDBSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key VARCHAR PRIMARY KEY,
    value VARCHAR,
    updated_at TIMESTAMP DEFAULT now()
);

CREATE TABLE IF NOT EXISTS projects (
    id BIGINT PRIMARY KEY,
    slug VARCHAR NOT NULL,
    display_name VARCHAR NOT NULL,
    github_repo VARCHAR,
    github_owner VARCHAR,
    default_branch VARCHAR,
    status VARCHAR,
    tags VARCHAR,
    created_at TIMESTAMP,
    updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS shared_docs (
    id BIGINT PRIMARY KEY,
    slug VARCHAR NOT NULL,
    title VARCHAR NOT NULL,
    display_order INTEGER,
    enabled INTEGER,
    updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS project_docs (
    id BIGINT PRIMARY KEY,
    project_id BIGINT NOT NULL,
    slug VARCHAR NOT NULL,
    title VARCHAR NOT NULL,
    display_order INTEGER,
    enabled INTEGER,
    origin VARCHAR,
    updated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_project_docs_project ON project_docs(project_id);

CREATE TABLE IF NOT EXISTS doc_push_log (
    id BIGINT PRIMARY KEY,
    project_id BIGINT NOT NULL,
    target_repo VARCHAR NOT NULL,
    target_path VARCHAR NOT NULL,
    commit_sha VARCHAR,
    commit_url VARCHAR,
    status VARCHAR NOT NULL,
    error_message VARCHAR,
    push_trigger VARCHAR,
    pushed_by BIGINT,
    pushed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_doc_push_log_project ON doc_push_log(project_id);
CREATE INDEX IF NOT EXISTS idx_doc_push_log_time ON doc_push_log(pushed_at);
`

// DuckDB wraps sql.DB for DuckDB
type DuckDB struct {
	*sql.DB
	path string
}

// OpenDuckDB opens or creates a DuckDB database
func OpenDuckDB(path string) (*DuckDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create duckdb dir: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect duckdb: %w", err)
	}

	d := &DuckDB{DB: db, path: path}

	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init duckdb schema: %w", err)
	}

	return d, nil
}

// Init initializes the DuckDB schema
func (d *DuckDB) Init() error {
	if _, err := d.Exec(duckDBSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	_, err := d.Exec(`
		INSERT INTO metadata (key, value, updated_at)
		VALUES ('schema_version', ?, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()
	`, fmt.Sprint(duckDBSchemaVersion))
	if err != nil {
		return fmt.Errorf("store schema version: %w", err)
	}

	return nil
}

// Path returns the database file path
func (d *DuckDB) Path() string {
	return d.path
}
