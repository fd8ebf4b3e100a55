// Package analytics answers reporting questions about publish activity from
// a DuckDB mirror of the document tables.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// ProjectStat summarises publish attempts for one project
type ProjectStat struct {
	ProjectID    int64      `json:"projectId"`
	Slug         string     `json:"slug"`
	Total        int        `json:"total"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	AutoPushes   int        `json:"autoPushes"`
	LastPushedAt *time.Time `json:"lastPushedAt,omitempty"`
}

// SuccessRate returns the share of successful attempts in percent
func (s ProjectStat) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) * 100 / float64(s.Total)
}

// TrendPoint is one day of publish activity
type TrendPoint struct {
	Day       string `json:"day"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Service exports the SQLite store into DuckDB and queries the mirror
type Service struct {
	src      *db.DB
	duckPath string
	log      *slog.Logger
}

// New creates an analytics service mirroring src into duckPath
func New(src *db.DB, duckPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, duckPath: duckPath, log: logger}
}

// Path returns the mirror location
func (s *Service) Path() string {
	return s.duckPath
}

// Export rebuilds the mirror from the primary store
func (s *Service) Export(ctx context.Context) (*db.MigrationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := db.MirrorToDuckDB(s.src, s.duckPath)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		s.log.Warn("mirror table failed", "error", e)
	}
	if result.BackupPath != "" {
		s.log.Warn("previous mirror kept", "path", result.BackupPath)
	}
	s.log.Info("analytics mirror exported", "path", s.duckPath, "tables", result.TablesProcessed, "duration", time.Since(start))
	return result, nil
}

func (s *Service) open() (*db.DuckDB, error) {
	if _, err := os.Stat(s.duckPath); os.IsNotExist(err) {
		return nil, errors.Newf(errors.ENotConfigured, "analytics mirror %s does not exist; run an export first", s.duckPath)
	}
	return db.OpenDuckDB(s.duckPath)
}

// ProjectStats returns per-project publish counts, busiest first
func (s *Service) ProjectStats(ctx context.Context) ([]ProjectStat, error) {
	duck, err := s.open()
	if err != nil {
		return nil, err
	}
	defer duck.Close()

	rows, err := duck.QueryContext(ctx, `
		SELECT
			p.id,
			p.slug,
			count(l.id) AS total,
			count(l.id) FILTER (WHERE l.status = 'success') AS succeeded,
			count(l.id) FILTER (WHERE l.status = 'error') AS failed,
			count(l.id) FILTER (WHERE l.push_trigger = 'auto') AS auto_pushes,
			max(l.pushed_at) AS last_pushed_at
		FROM projects p
		LEFT JOIN doc_push_log l ON l.project_id = p.id
		GROUP BY p.id, p.slug
		ORDER BY total DESC, p.slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query project stats: %w", err)
	}
	defer rows.Close()

	var stats []ProjectStat
	for rows.Next() {
		var st ProjectStat
		var last sql.NullTime
		if err := rows.Scan(&st.ProjectID, &st.Slug, &st.Total, &st.Succeeded, &st.Failed, &st.AutoPushes, &last); err != nil {
			return nil, fmt.Errorf("scan project stats: %w", err)
		}
		if last.Valid {
			t := last.Time.UTC()
			st.LastPushedAt = &t
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Trend returns daily success and failure counts for the last days days,
// oldest first
func (s *Service) Trend(ctx context.Context, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	duck, err := s.open()
	if err != nil {
		return nil, err
	}
	defer duck.Close()

	rows, err := duck.QueryContext(ctx, `
		SELECT
			strftime(pushed_at, '%Y-%m-%d') AS day,
			count(*) FILTER (WHERE status = 'success') AS succeeded,
			count(*) FILTER (WHERE status = 'error') AS failed
		FROM doc_push_log
		WHERE pushed_at >= current_date - CAST(? AS INTEGER)
		GROUP BY 1
		ORDER BY 1
	`, days)
	if err != nil {
		return nil, fmt.Errorf("query push trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Day, &p.Succeeded, &p.Failed); err != nil {
			return nil, fmt.Errorf("scan push trend: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ExportParquet writes the mirrored push history to a parquet file
func (s *Service) ExportParquet(ctx context.Context, outPath string) error {
	if strings.ContainsAny(outPath, "'\n") {
		return errors.Validation("output", "path must not contain quotes or newlines")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	duck, err := s.open()
	if err != nil {
		return err
	}
	defer duck.Close()

	query := fmt.Sprintf(`COPY (
		SELECT id, project_id, target_repo, target_path, commit_sha, status,
		       error_message, push_trigger, pushed_by, pushed_at
		FROM doc_push_log ORDER BY pushed_at
	) TO '%s' (FORMAT PARQUET)`, outPath)
	if _, err := duck.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	return nil
}
