// Package main provides the entry point for the flowfang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowfang/cmd/flowfang/commands"
	"github.com/Sumatoshi-tech/flowfang/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "flowfang",
		Short: "Flowfang - workflow timeline and flow metrics for Jira projects",
		Long: `Flowfang reconstructs per-issue status timelines from Jira changelogs
and derives flow metrics from them.

Commands:
  export    Compute flow reports (cycle time, status timing, transitions, CFD)
  issues    List the issues of a snapshot or project
  mcp       Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewIssuesCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "flowfang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
