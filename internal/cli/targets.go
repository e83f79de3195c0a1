package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/halcyondude/supply-chain-security-collector/internal/targets"
)

func newTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "targets",
		Short:   "Validate and list a targets file",
		Example: "  scsc targets --targets-file landscape.yaml",
		RunE:    runTargets,
	}
	return cmd
}

func runTargets(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd.Context())
	if cfg.TargetsFile == "" {
		return fmt.Errorf("no targets file given (use --targets-file)")
	}

	tgts, projects, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		return err
	}

	projectOf := make(map[string]string)
	primary := make(map[string]bool)
	for _, p := range projects {
		for _, r := range p.Repos {
			key := r.Owner + "/" + r.Name
			projectOf[key] = p.ProjectName
			primary[key] = r.Primary
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Repository", "Project", "Primary"})
	for _, tgt := range tgts {
		key := tgt.String()
		t.AppendRow(table.Row{key, projectOf[key], primary[key]})
	}
	t.Render()

	fmt.Printf("%d targets, %d projects\n", len(tgts), len(projects))
	return nil
}
