package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyondude/supply-chain-security-collector/internal/store"
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run an ad hoc SQL query against a collected database",
		Example: `  scsc query --db-path out/run.duckdb "SELECT * FROM agg_repo_security"
  scsc query -o json "SELECT tool_name, repo_count FROM agg_tool_usage"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0])
		},
	}
	return cmd
}

func runQuery(cmd *cobra.Command, sqlText string) error {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	logger := getLogger(ctx)

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	st.EnsureExtensions(ctx)

	rows, err := st.Query(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(os.Stdout, rows, cfg.Output)
}
