package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyondude/supply-chain-security-collector/internal/analyze"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
)

func newAnalyzeCommand() *cobra.Command {
	var recreate bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the SQL analysis models against an existing database",
		Long: `Execute the ordered SQL model sequence against a previously collected
database. Models whose upstream tables are missing are skipped; other
model failures are logged as warnings. The command exits non-zero only
when the database cannot be opened.`,
		Example: `  # Analyze a collected database
  scsc analyze --db-path out/run.duckdb

  # Drop all derived tables and rebuild them
  scsc analyze --db-path out/run.duckdb --recreate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, recreate)
		},
	}

	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop derived tables and views before running")
	return cmd
}

func runAnalyze(cmd *cobra.Command, recreate bool) error {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	logger := getLogger(ctx)
	start := time.Now()

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	analyzer := analyze.New(st, logger, os.Stdout)

	fmt.Printf("Analyzing %s\n", cfg.DBPath)
	results, err := analyzer.Run(ctx, recreate)
	if err != nil {
		return err
	}

	var succeeded, skipped, warned int
	for _, r := range results {
		switch r.Status {
		case analyze.StatusSucceeded:
			succeeded++
		case analyze.StatusSkipped:
			skipped++
		case analyze.StatusWarned:
			warned++
		}
	}
	fmt.Printf("Models: %d succeeded, %d skipped, %d warned\n", succeeded, skipped, warned)

	analyzer.Summarize(ctx, os.Stdout)

	if err := st.Checkpoint(ctx); err != nil {
		logger.Warn("checkpoint failed", "error", err)
	}

	fmt.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
