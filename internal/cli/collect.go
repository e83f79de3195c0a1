package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyondude/supply-chain-security-collector/internal/analyze"
	"github.com/halcyondude/supply-chain-security-collector/internal/collect"
	"github.com/halcyondude/supply-chain-security-collector/internal/extract"
	"github.com/halcyondude/supply-chain-security-collector/internal/github"
	"github.com/halcyondude/supply-chain-security-collector/internal/materialize"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
	"github.com/halcyondude/supply-chain-security-collector/internal/targets"
)

func newCollectCommand() *cobra.Command {
	var runAnalysis bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch targets and materialize the database",
		Long: `Fetch the artifact graph of every target repository, load the raw
and normalized tables into DuckDB, export Parquet files, and optionally
run the analysis models in the same invocation.`,
		Example: `  # Collect a flat target list
  scsc collect --targets-file targets.yaml --db-path out/run.duckdb

  # Collect a landscape extract and analyze immediately
  scsc collect --targets-file landscape.yaml --analyze`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, runAnalysis)
		},
	}

	cmd.Flags().BoolVar(&runAnalysis, "analyze", false, "Run analysis models after collection")
	return cmd
}

func runCollect(cmd *cobra.Command, runAnalysis bool) error {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	logger := getLogger(ctx)
	start := time.Now()

	if cfg.TargetsFile == "" {
		return fmt.Errorf("no targets file given (use --targets-file or SCSC_TARGETS_FILE)")
	}
	if cfg.GithubToken == "" {
		return fmt.Errorf("no GitHub token found (set GITHUB_TOKEN or SCSC_GITHUB_TOKEN)")
	}

	tgts, projects, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		return err
	}
	fmt.Printf("Collecting %d targets", len(tgts))
	if len(projects) > 0 {
		fmt.Printf(" across %d projects", len(projects))
	}
	fmt.Println()

	registry, err := extract.NewRegistry()
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	client := github.NewClient(cfg.GithubToken, github.ClientOptions{
		ReleaseLimit: cfg.ReleaseLimit,
		AssetLimit:   cfg.AssetLimit,
	}, logger)

	writer := materialize.NewWriter(st, registry, cfg.ExportDir, logger)
	collector := collect.New(client, writer, collect.Options{
		AuditPath:   cfg.AuditLog,
		Concurrency: cfg.FetchConcurrency,
	}, logger)

	stats, err := collector.Run(ctx, tgts, projects)
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d, not found %d, failed %d\n", stats.Fetched, stats.NotFound, stats.Failed)

	if runAnalysis {
		fmt.Println("Running analysis models...")
		analyzer := analyze.New(st, logger, os.Stdout)
		if _, err := analyzer.Run(ctx, false); err != nil {
			return err
		}
		analyzer.Summarize(ctx, os.Stdout)
		if err := st.Checkpoint(ctx); err != nil {
			logger.Warn("checkpoint failed", "error", err)
		}
	}

	fmt.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
