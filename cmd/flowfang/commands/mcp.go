package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowfang/internal/config"
	"github.com/Sumatoshi-tech/flowfang/internal/mcp"
	"github.com/Sumatoshi-tech/flowfang/internal/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes flowfang flow analytics as tools that AI agents
can discover and invoke:
  - flow_cycle_time: Per-issue cycle times from a snapshot
  - flow_status_timing: Time spent per status group
  - flow_transitions: Status transition log with mapped groups
  - flow_cfd: Cumulative flow diagram time series`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			providers, err := initObservability(cfg, observability.ModeMCP)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			metrics, err := observability.NewFlowMetrics(providers.Meter)
			if err != nil {
				return err
			}

			deps := mcp.ServerDeps{Logger: providers.Logger, Metrics: metrics, Tracer: providers.Tracer}

			srv := mcp.NewServer(deps)

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: .flowfang.yaml)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
