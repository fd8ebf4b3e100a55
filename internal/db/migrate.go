package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// MirrorTables are the SQLite tables copied into the DuckDB mirror
var MirrorTables = []string{
	"projects",
	"shared_docs",
	"project_docs",
	"doc_push_log",
}

// MigrationResult contains migration statistics
type MigrationResult struct {
	TablesProcessed int
	RowsMigrated    map[string]int
	Errors          []string
	// BackupPath is the previous mirror, kept when any table failed
	BackupPath string
}

// MirrorToDuckDB rebuilds the DuckDB mirror at duckdbPath from src.
// An existing mirror is moved to <path>.backup and removed only when every
// table copied cleanly.
func MirrorToDuckDB(src *DB, duckdbPath string) (*MigrationResult, error) {
	result := &MigrationResult{
		RowsMigrated: make(map[string]int),
	}

	backupPath := duckdbPath + ".backup"
	if _, err := os.Stat(duckdbPath); err == nil {
		os.Remove(backupPath)
		if err := os.Rename(duckdbPath, backupPath); err != nil {
			return nil, fmt.Errorf("backup duckdb: %w", err)
		}
	}

	duck, err := OpenDuckDB(duckdbPath)
	if err != nil {
		return nil, err
	}
	defer duck.Close()

	for _, table := range MirrorTables {
		count, err := migrateTable(src.DB, duck.DB, table)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", table, err))
			continue
		}
		result.RowsMigrated[table] = count
		result.TablesProcessed++
	}

	if len(result.Errors) > 0 {
		if _, err := os.Stat(backupPath); err == nil {
			result.BackupPath = backupPath
		}
		return result, nil
	}
	os.Remove(backupPath)
	return result, nil
}

// migrateTable copies the columns both databases share for one table
func migrateTable(sqlite, duckdb *sql.DB, tableName string) (int, error) {
	var exists int
	err := sqlite.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName).Scan(&exists)
	if err != nil || exists == 0 {
		return 0, nil
	}

	rows, err := sqlite.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, tableName))
	if err != nil {
		return 0, err
	}

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		columns = append(columns, name)
	}
	rows.Close()

	duckColumns := make(map[string]bool)
	duckRows, err := duckdb.Query(`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, tableName)
	if err != nil {
		return 0, err
	}
	for duckRows.Next() {
		var col string
		if duckRows.Scan(&col) == nil {
			duckColumns[col] = true
		}
	}
	duckRows.Close()

	var common []string
	for _, col := range columns {
		if duckColumns[col] {
			common = append(common, col)
		}
	}
	if len(common) == 0 {
		return 0, nil
	}

	columnList := strings.Join(common, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(common)), ", ")

	dataRows, err := sqlite.Query(fmt.Sprintf(`SELECT %s FROM %s`, columnList, tableName))
	if err != nil {
		return 0, err
	}
	defer dataRows.Close()

	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, tableName, columnList, placeholders)

	count := 0
	for dataRows.Next() {
		values := make([]interface{}, len(common))
		ptrs := make([]interface{}, len(common))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := dataRows.Scan(ptrs...); err != nil {
			return count, err
		}
		if _, err := duckdb.Exec(insertQuery, values...); err != nil {
			return count, fmt.Errorf("insert row: %w", err)
		}
		count++
	}

	return count, dataRows.Err()
}
