// Package analyze runs the ordered SQL model sequence that turns base
// entity tables into derived pattern and rollup tables. Models are embedded
// .sql files; lexicographic file order is dependency order. A model whose
// upstream table is missing is skipped, any other model failure is logged
// as a warning, and the sequence always runs to completion.
package analyze

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/halcyondude/supply-chain-security-collector/internal/materialize"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
)

//go:embed models/*.sql
var modelFS embed.FS

// Status is the outcome of one model execution.
type Status string

const (
	// StatusSucceeded: every statement in the model executed.
	StatusSucceeded Status = "succeeded"
	// StatusSkipped: a referenced table does not exist, expected when an
	// optional upstream producer was itself skipped.
	StatusSkipped Status = "skipped"
	// StatusWarned: any other execution error; logged, run continues.
	StatusWarned Status = "warned"
)

// ModelResult records the outcome of one model in the sequence.
type ModelResult struct {
	Name     string
	Status   Status
	Detail   string
	Duration time.Duration
}

// Analyzer executes the model sequence against an open store.
type Analyzer struct {
	store  *store.Store
	logger *slog.Logger
	out    io.Writer
}

// New returns an Analyzer. out receives per-model progress lines; pass
// io.Discard to silence them.
func New(st *store.Store, logger *slog.Logger, out io.Writer) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if out == nil {
		out = io.Discard
	}
	return &Analyzer{store: st, logger: logger, out: out}
}

// Run executes every model in order. With recreate, all derived tables and
// views are dropped first so the run is idempotent against stale state.
// Individual model failures never abort the sequence; the returned error is
// reserved for infrastructure failures (unreadable embedded models).
func (a *Analyzer) Run(ctx context.Context, recreate bool) ([]ModelResult, error) {
	a.store.EnsureExtensions(ctx)

	if recreate {
		if err := a.DropAggregates(ctx); err != nil {
			return nil, err
		}
	}

	names, err := modelNames()
	if err != nil {
		return nil, err
	}

	results := make([]ModelResult, 0, len(names))
	for _, name := range names {
		result := a.runModel(ctx, name)
		results = append(results, result)

		switch result.Status {
		case StatusSucceeded:
			fmt.Fprintf(a.out, "  ✓ %s (%s)\n", name, result.Duration.Round(time.Millisecond))
		case StatusSkipped:
			fmt.Fprintf(a.out, "  ⓘ %s skipped: %s\n", name, result.Detail)
		case StatusWarned:
			fmt.Fprintf(a.out, "  ✗ %s: %s\n", name, result.Detail)
		}
	}

	return results, nil
}

// runModel executes one model file, statement by statement, single shot.
// There is no retry; re-running the whole pipeline is the retry strategy.
func (a *Analyzer) runModel(ctx context.Context, name string) ModelResult {
	start := time.Now()

	content, err := modelFS.ReadFile("models/" + name)
	if err != nil {
		// Embedded file unreadable is a build defect, surface as warning.
		return ModelResult{Name: name, Status: StatusWarned, Detail: err.Error(), Duration: time.Since(start)}
	}

	for _, stmt := range splitStatements(string(content)) {
		if err := a.store.Exec(ctx, stmt); err != nil {
			if isMissingRelation(err) {
				a.logger.Info("model skipped, upstream table missing", "model", name, "error", truncate(err.Error(), 200))
				return ModelResult{Name: name, Status: StatusSkipped, Detail: truncate(err.Error(), 200), Duration: time.Since(start)}
			}
			a.logger.Warn("model execution failed", "model", name, "error", truncate(err.Error(), 200))
			return ModelResult{Name: name, Status: StatusWarned, Detail: truncate(err.Error(), 200), Duration: time.Since(start)}
		}
	}

	a.logger.Debug("model executed", "model", name, "duration_ms", time.Since(start).Milliseconds())
	return ModelResult{Name: name, Status: StatusSucceeded, Duration: time.Since(start)}
}

// DropAggregates removes every derived table and view by the agg_ prefix
// convention, views first since they may reference tables.
func (a *Analyzer) DropAggregates(ctx context.Context) error {
	views, err := a.store.ListViews(ctx, materialize.AggPrefix+"%")
	if err != nil {
		return fmt.Errorf("failed to list derived views: %w", err)
	}
	for _, view := range views {
		if err := a.store.Exec(ctx, fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, view)); err != nil {
			return fmt.Errorf("failed to drop view %s: %w", view, err)
		}
	}

	tables, err := a.store.ListTables(ctx, materialize.AggPrefix+"%")
	if err != nil {
		return fmt.Errorf("failed to list derived tables: %w", err)
	}
	for _, table := range tables {
		if err := a.store.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	a.logger.Info("derived tier dropped", "views", len(views), "tables", len(tables))
	return nil
}

// RunQuery is the escape hatch for ad hoc read queries.
func (a *Analyzer) RunQuery(ctx context.Context, sqlText string) (*sql.Rows, error) {
	return a.store.Query(ctx, sqlText)
}

// ModelNames returns the model sequence in execution order.
func ModelNames() ([]string, error) {
	return modelNames()
}

func modelNames() ([]string, error) {
	entries, err := modelFS.ReadDir("models")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded models: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// isMissingRelation classifies a model error as "referenced table/view does
// not exist". DuckDB reports these as catalog errors; matching the message
// text is a known fragility, isolated here so a structured driver error can
// replace it. Binder errors (missing columns) deliberately do not match:
// those are model defects and must surface as warnings.
func isMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist") {
		return true
	}
	return strings.Contains(msg, "Table with name") && strings.Contains(msg, "does not exist!")
}

// splitStatements splits a model file into executable statements, dropping
// line comments. Model SQL keeps string literals semicolon-free, so a plain
// split is sufficient.
func splitStatements(content string) []string {
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	var out []string
	for _, stmt := range strings.Split(sb.String(), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(stmt))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
