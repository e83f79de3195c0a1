package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/halcyondude/supply-chain-security-collector/internal/extract"
	"github.com/halcyondude/supply-chain-security-collector/internal/github"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
	"github.com/halcyondude/supply-chain-security-collector/internal/targets"
)

// Enrichment table names for project metadata and its junction.
const (
	TableProjects            = "projects"
	TableProjectRepositories = "project_repositories"
)

// Batch is one completed fetch batch handed to the writer.
type Batch struct {
	// Shape names the query shape, selecting the extractor.
	Shape string
	// Responses is the raw response batch, nil entries included.
	Responses []*github.RepoArtifactsResponse
	// Projects is optional grouping metadata accompanying the batch.
	Projects []targets.ProjectMeta
}

// projectRow and projectRepoRow are the enrichment tier records.
type projectRow struct {
	ProjectName  string  `json:"project_name"`
	Maturity     string  `json:"maturity"`
	Category     string  `json:"category"`
	AcceptedAt   *string `json:"accepted_at"`
	GraduatedAt  *string `json:"graduated_at"`
	ArchivedAt   *string `json:"archived_at"`
	DevStatsURL  *string `json:"dev_stats_url"`
	LandscapeURL *string `json:"landscape_url"`
	AuditCount   int     `json:"audit_count"`
}

type projectRepoRow struct {
	ProjectName   string `json:"project_name"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	NameWithOwner string `json:"name_with_owner"`
	IsPrimary     bool   `json:"is_primary"`
}

var projectsSchema = extract.Schema{
	{Name: "project_name", Type: "VARCHAR"},
	{Name: "maturity", Type: "VARCHAR"},
	{Name: "category", Type: "VARCHAR"},
	{Name: "accepted_at", Type: "VARCHAR"},
	{Name: "graduated_at", Type: "VARCHAR"},
	{Name: "archived_at", Type: "VARCHAR"},
	{Name: "dev_stats_url", Type: "VARCHAR"},
	{Name: "landscape_url", Type: "VARCHAR"},
	{Name: "audit_count", Type: "INTEGER"},
}

var projectRepositoriesSchema = extract.Schema{
	{Name: "project_name", Type: "VARCHAR"},
	{Name: "owner", Type: "VARCHAR"},
	{Name: "name", Type: "VARCHAR"},
	{Name: "name_with_owner", Type: "VARCHAR"},
	{Name: "is_primary", Type: "BOOLEAN"},
}

// Writer drives end-to-end materialization of one batch: raw tier, extractor
// dispatch, normalized tables, enrichment tables, Parquet export, checkpoint.
// Storage failures abort the batch; a missing extractor only skips
// normalization since the raw tier already preserves the data.
type Writer struct {
	store     *store.Store
	registry  *extract.Registry
	mat       *Materializer
	exportDir string
	logger    *slog.Logger
}

// NewWriter returns a Writer. exportDir may be empty to skip Parquet export.
func NewWriter(st *store.Store, registry *extract.Registry, exportDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{
		store:     st,
		registry:  registry,
		mat:       NewMaterializer(st, logger),
		exportDir: exportDir,
		logger:    logger,
	}
}

// Write materializes one batch.
func (w *Writer) Write(ctx context.Context, batch Batch) error {
	w.store.EnsureExtensions(ctx)

	if err := w.writeRaw(ctx, batch); err != nil {
		return err
	}

	if err := w.writeNormalized(ctx, batch); err != nil {
		return err
	}

	if len(batch.Projects) > 0 {
		if err := w.writeProjects(ctx, batch.Projects); err != nil {
			return err
		}
	}

	if w.exportDir != "" {
		if err := w.exportAll(ctx); err != nil {
			return err
		}
	}

	if err := w.store.Checkpoint(ctx); err != nil {
		// Best effort: data is written, only the explicit flush failed.
		w.logger.Warn("checkpoint failed", "error", err)
	}
	return nil
}

// writeRaw loads the complete response batch, nesting preserved, as the
// audit/debug tier. Always created, even when normalization is skipped.
func (w *Writer) writeRaw(ctx context.Context, batch Batch) error {
	name := RawPrefix + batch.Shape

	if len(batch.Responses) == 0 {
		fallback := extract.Schema{{Name: "repository", Type: "JSON"}}
		if err := w.mat.Materialize(ctx, name, nil, fallback); err != nil {
			return fmt.Errorf("raw tier: %w", err)
		}
		return nil
	}

	records := make([]any, len(batch.Responses))
	for i, resp := range batch.Responses {
		if resp == nil {
			resp = &github.RepoArtifactsResponse{}
		}
		records[i] = resp
	}
	if err := w.mat.Materialize(ctx, name, records, nil); err != nil {
		return fmt.Errorf("raw tier: %w", err)
	}
	return nil
}

func (w *Writer) writeNormalized(ctx context.Context, batch Batch) error {
	extractor, ok := w.registry.Get(batch.Shape)
	if !ok {
		w.logger.Warn("no extractor registered for shape, skipping normalization",
			"shape", batch.Shape, "known", w.registry.Shapes())
		return nil
	}

	tables := extractor.Fn(batch.Responses)
	w.logger.Info(extract.Summary(tables), "shape", batch.Shape)

	for _, name := range sortedKeys(tables) {
		if err := w.mat.Materialize(ctx, name, tables[name], extractor.Fallbacks[name]); err != nil {
			return err
		}
	}
	return nil
}

// writeProjects materializes the project metadata entity and its junction
// table, deduplicating by project name.
func (w *Writer) writeProjects(ctx context.Context, metas []targets.ProjectMeta) error {
	seen := make(map[string]bool)
	var projects []any
	var junctions []any

	for _, meta := range metas {
		if seen[meta.ProjectName] {
			continue
		}
		seen[meta.ProjectName] = true

		projects = append(projects, projectRow{
			ProjectName:  meta.ProjectName,
			Maturity:     meta.Maturity,
			Category:     meta.Category,
			AcceptedAt:   meta.AcceptedAt,
			GraduatedAt:  meta.GraduatedAt,
			ArchivedAt:   meta.ArchivedAt,
			DevStatsURL:  meta.DevStatsURL,
			LandscapeURL: meta.LandscapeURL,
			AuditCount:   meta.AuditCount,
		})
		for _, repo := range meta.Repos {
			junctions = append(junctions, projectRepoRow{
				ProjectName:   meta.ProjectName,
				Owner:         repo.Owner,
				Name:          repo.Name,
				NameWithOwner: repo.Owner + "/" + repo.Name,
				IsPrimary:     repo.Primary,
			})
		}
	}

	if err := w.mat.Materialize(ctx, TableProjects, projects, projectsSchema); err != nil {
		return err
	}
	return w.mat.Materialize(ctx, TableProjectRepositories, junctions, projectRepositoriesSchema)
}

func (w *Writer) exportAll(ctx context.Context) error {
	tables, err := w.store.ListTables(ctx, "%")
	if err != nil {
		return fmt.Errorf("failed to list tables for export: %w", err)
	}
	for _, table := range tables {
		if err := w.store.ExportParquet(ctx, table, w.exportDir); err != nil {
			return err
		}
	}
	w.logger.Info("tables exported", "count", len(tables), "dir", w.exportDir)
	return nil
}

func sortedKeys(t extract.Tables) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
