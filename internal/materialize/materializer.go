// Package materialize turns extracted entity rows into queryable DuckDB
// tables and orchestrates the per-batch write path: raw tier, normalized
// tier, optional project enrichment, Parquet export, checkpoint.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/halcyondude/supply-chain-security-collector/internal/extract"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
)

// Table tier prefixes. Raw ingestion tables and derived aggregates are
// prefixed; normalized entity tables use bare names.
const (
	RawPrefix = "raw_"
	AggPrefix = "agg_"
)

// MissingFallbackError reports a zero-row table with no declared fallback
// schema. This is a programming error: an entity type was added to an
// extractor without updating its fallback registry.
type MissingFallbackError struct {
	Table string
}

func (e *MissingFallbackError) Error() string {
	return fmt.Sprintf("no fallback schema declared for empty table %q", e.Table)
}

// Materializer writes one logical table at a time into the store.
type Materializer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewMaterializer returns a Materializer bound to a store.
func NewMaterializer(st *store.Store, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Materializer{store: st, logger: logger}
}

// Materialize creates table name from records. Non-empty input lets DuckDB
// infer the schema from the data; empty input falls back to the statically
// declared schema. An empty table without a fallback is fatal. Either way
// the write is atomic: the table exists fully populated or not at all, and
// is immediately queryable afterwards.
func (m *Materializer) Materialize(ctx context.Context, name string, records []any, fallback extract.Schema) error {
	if len(records) == 0 {
		if len(fallback) == 0 {
			return &MissingFallbackError{Table: name}
		}
		if err := m.createEmpty(ctx, name, fallback); err != nil {
			return fmt.Errorf("failed to create empty table %s: %w", name, err)
		}
		m.logger.Info("table created empty", "table", name)
		return nil
	}

	if err := m.store.IngestJSONRecords(ctx, name, records); err != nil {
		return fmt.Errorf("failed to materialize %s: %w", name, err)
	}
	m.logger.Info("table materialized", "table", name, "rows", len(records))
	return nil
}

func (m *Materializer) createEmpty(ctx context.Context, name string, schema extract.Schema) error {
	cols := make([]string, len(schema))
	for i, col := range schema {
		cols[i] = fmt.Sprintf(`"%s" %s`, col.Name, col.Type)
	}
	return m.store.Exec(ctx, fmt.Sprintf(
		`CREATE OR REPLACE TABLE "%s" (%s)`, name, strings.Join(cols, ", "),
	))
}
