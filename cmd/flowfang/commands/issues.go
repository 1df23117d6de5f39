package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowfang/internal/config"
	"github.com/Sumatoshi-tech/flowfang/internal/observability"
	"github.com/Sumatoshi-tech/flowfang/pkg/export"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

// IssuesCommand holds configuration for the issues listing command.
type IssuesCommand struct {
	configPath string
	input      string
	project    string
	jql        string
	validate   bool
}

// NewIssuesCommand creates the issues listing command.
func NewIssuesCommand() *cobra.Command {
	ic := &IssuesCommand{}

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List the issues of a snapshot or project",
		Long: `List the issues of an offline snapshot (--input) or a live
project (--project) as a table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ic.run,
	}

	cmd.Flags().StringVar(&ic.configPath, "config", "", "Config file path (default: .flowfang.yaml)")
	cmd.Flags().StringVarP(&ic.input, "input", "i", "", "Offline snapshot JSON file")
	cmd.Flags().StringVarP(&ic.project, "project", "p", "", "Jira project key for live retrieval")
	cmd.Flags().StringVar(&ic.jql, "jql", "", "JQL filter for live retrieval")
	cmd.Flags().BoolVar(&ic.validate, "validate", false, "Validate the snapshot against the issue schema before listing")

	return cmd
}

func (ic *IssuesCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(ic.configPath)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() {
		_ = providers.Shutdown(cmd.Context())
	}()

	src := issueSource{input: ic.input, project: ic.project, jql: ic.jql, validate: ic.validate}

	issues, source, err := src.load(cmd.Context(), cfg, providers.Logger)
	if err != nil {
		return err
	}

	providers.Logger.InfoContext(cmd.Context(), "issues loaded", "source", source, "count", len(issues))

	refs := make([]*jira.Issue, len(issues))
	for i := range issues {
		refs[i] = &issues[i]
	}

	fmt.Fprintln(cmd.OutOrStdout(), export.IssuesTable(refs, time.Now()))

	return nil
}
