// Package cli provides the scsc command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/halcyondude/supply-chain-security-collector/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}
type loggerKey struct{}

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scsc",
		Short: "Supply-chain security collector",
		Long: `scsc surveys the supply-chain security posture of open-source
repositories. It fetches release artifacts, CI workflows, and branch
protection data over the GitHub GraphQL API, normalizes them into an
embedded DuckDB database, and runs SQL models that detect SBOMs,
signatures, attestations, and security tooling usage.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// .env is optional; a missing file is not an error.
			_ = godotenv.Load()

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Verbose)
			if cfg.Verbose {
				if used := config.ConfigFileUsed(); used != "" {
					logger.Debug("using config file", "path", used)
				}
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./scsc.yaml)")
	rootCmd.PersistentFlags().String("db-path", "", "Path to the DuckDB database")
	rootCmd.PersistentFlags().String("export-dir", "", "Directory for Parquet export (empty to disable)")
	rootCmd.PersistentFlags().String("targets-file", "", "YAML file listing repositories or projects to collect")
	rootCmd.PersistentFlags().String("audit-log", "", "NDJSON fetch audit log (empty to disable)")
	rootCmd.PersistentFlags().Int("release-limit", 0, "Releases fetched per repository")
	rootCmd.PersistentFlags().Int("asset-limit", 0, "Assets fetched per release")
	rootCmd.PersistentFlags().Int("fetch-concurrency", 0, "Parallel GraphQL fetches")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv|md)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newCollectCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newTargetsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		DBPath:           config.DefaultDBPath,
		ExportDir:        config.DefaultExportDir,
		AuditLog:         config.DefaultAuditLog,
		ReleaseLimit:     config.DefaultReleaseLimit,
		AssetLimit:       config.DefaultAssetLimit,
		FetchConcurrency: config.DefaultFetchConcurrency,
		Output:           config.DefaultOutput,
	}
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
