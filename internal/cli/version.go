package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scsc %s (commit %s)\n", Version, GitCommit)
			fmt.Println("Built with Go and DuckDB")
		},
	}
}
