package store

import (
	"context"
	"fmt"
)

// Extension is one optional DuckDB capability the pipeline benefits from.
type Extension struct {
	Name        string
	Description string
}

// Extensions lists every optional capability the collector tries to load.
// None of them is load-bearing for connection setup: JSON and Parquet ship
// bundled with recent DuckDB builds, fts powers approximate workflow search,
// httpfs enables reading remote files in ad hoc queries, autocomplete helps
// interactive sessions against the produced database.
var Extensions = []Extension{
	{"json", "JSON ingestion and functions"},
	{"parquet", "columnar export"},
	{"fts", "full-text search over workflow content"},
	{"httpfs", "remote file access for ad hoc queries"},
	{"autocomplete", "shell autocompletion"},
}

// EnsureExtensions installs and loads every listed extension. Failures are
// logged and skipped: one missing capability must never block the others or
// abort the run. Safe to call at the start of every connection.
func (s *Store) EnsureExtensions(ctx context.Context) {
	for _, ext := range Extensions {
		if err := s.Exec(ctx, fmt.Sprintf("INSTALL %s", ext.Name)); err != nil {
			s.logger.Warn("extension install failed", "extension", ext.Name, "error", err)
			continue
		}
		if err := s.Exec(ctx, fmt.Sprintf("LOAD %s", ext.Name)); err != nil {
			s.logger.Warn("extension load failed", "extension", ext.Name, "error", err)
			continue
		}
		s.logger.Debug("extension loaded", "extension", ext.Name)
	}
}
