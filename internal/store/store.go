// Package store owns the embedded DuckDB database used by the collector:
// connection lifecycle, optional extension loading, JSON batch ingestion,
// and Parquet export. The handle is exclusively owned by one run at a time;
// there is no cross-run concurrency control.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Store wraps a single DuckDB connection.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (or creates) a DuckDB database at path. Use ":memory:" for an
// in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = ":memory:"
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	logger.Debug("database opened", "path", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exec executes a SQL statement that doesn't return rows.
func (s *Store) Exec(ctx context.Context, sqlStr string) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := s.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (s *Store) Query(ctx context.Context, sqlStr string) (*sql.Rows, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// Checkpoint forces a durability flush so uncommitted writes survive an
// immediate process exit. Called before releasing the handle. A plain
// CHECKPOINT fails while another transaction holds the database; FORCE
// CHECKPOINT is the fallback since nothing else writes during a run.
func (s *Store) Checkpoint(ctx context.Context) error {
	if err := s.Exec(ctx, "CHECKPOINT"); err != nil {
		if forceErr := s.Exec(ctx, "FORCE CHECKPOINT"); forceErr != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing database connection", "path", s.path)
	return s.db.Close()
}

// IngestJSONRecords materializes records as a table named name, letting
// DuckDB infer the schema from the data. Records are staged as an NDJSON
// temp file and loaded via read_json_auto with full-batch sampling, so
// fields that are null in early rows still get typed from later ones.
// CREATE OR REPLACE keeps the write atomic per table.
func (s *Store) IngestJSONRecords(ctx context.Context, name string, records []any) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to ingest into %s", name)
	}

	tmp, err := os.CreateTemp("", "scsc-*.ndjson")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record for %s: %w", name, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush staging file: %w", err)
	}

	loadSQL := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_json_auto('%s', format='newline_delimited', sample_size=-1)",
		quoteIdent(name), escapeLiteral(tmp.Name()),
	)
	if err := s.Exec(ctx, loadSQL); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}

	s.logger.Debug("table ingested", "table", name, "rows", len(records))
	return nil
}

// ExportParquet writes a table to dir/<table>.parquet with zstd compression.
func (s *Store) ExportParquet(ctx context.Context, table, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	dest := filepath.Join(dir, table+".parquet")
	copySQL := fmt.Sprintf(
		"COPY %s TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD)",
		quoteIdent(table), escapeLiteral(dest),
	)
	if err := s.Exec(ctx, copySQL); err != nil {
		return fmt.Errorf("failed to export %s: %w", table, err)
	}
	return nil
}

// ListTables returns base table names matching a LIKE pattern ("%" for all).
func (s *Store) ListTables(ctx context.Context, pattern string) ([]string, error) {
	return s.listRelations(ctx, "BASE TABLE", pattern)
}

// ListViews returns view names matching a LIKE pattern.
func (s *Store) ListViews(ctx context.Context, pattern string) ([]string, error) {
	return s.listRelations(ctx, "VIEW", pattern)
}

func (s *Store) listRelations(ctx context.Context, kind, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "%"
	}
	query := fmt.Sprintf(
		"SELECT table_name FROM information_schema.tables WHERE table_type = '%s' AND table_name LIKE '%s' ORDER BY table_name",
		kind, escapeLiteral(pattern),
	)
	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table names: %w", err)
	}
	return names, nil
}

// quoteIdent quotes a SQL identifier. Table names come from the extractor
// registry and tier prefixes, not user input, but quoting keeps reserved
// words usable.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
