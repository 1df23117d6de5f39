package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowfang/internal/config"
	"github.com/Sumatoshi-tech/flowfang/internal/observability"
	"github.com/Sumatoshi-tech/flowfang/pkg/export"
	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
	"github.com/Sumatoshi-tech/flowfang/pkg/version"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// Report file names within the output directory.
const (
	fileTransitions  = "transitions.csv"
	fileIssueTimes   = "issue_times.csv"
	fileCycleTimes   = "cycle_times.csv"
	fileCFD          = "cfd.csv"
	fileCFDChart     = "cfd.html"
	fileTimingChart  = "status_timing.html"
	outputDirPerm    = 0o755
	outputFilePerm   = 0o600
	reportCycleTime  = "cycle_time"
	reportTiming     = "status_timing"
	reportTransition = "transitions"
	reportCFD        = "cfd"
)

// ExportCommand holds configuration and dependencies for the export command.
type ExportCommand struct {
	configPath   string
	input        string
	project      string
	jql          string
	workflowPath string
	outputDir    string
	format       string
	holidaysPath string
	businessDays bool
	wholeDays    bool
	strict       bool
	validate     bool

	cfd          bool
	statusTiming bool
	transitions  bool
	cycleTime    bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	ec := &ExportCommand{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compute flow reports from a snapshot or a live project",
		Long: `Compute flow reports from Jira issue histories.

Reads issues from an offline snapshot (--input) or a live project
(--project), reconstructs per-issue status timelines, and writes the
selected reports to the output directory. With no report flags, all
reports are written.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ec.run,
	}

	cmd.Flags().StringVar(&ec.configPath, "config", "", "Config file path (default: .flowfang.yaml)")
	cmd.Flags().StringVarP(&ec.input, "input", "i", "", "Offline snapshot JSON file")
	cmd.Flags().StringVarP(&ec.project, "project", "p", "", "Jira project key for live retrieval")
	cmd.Flags().StringVar(&ec.jql, "jql", "", "JQL filter for live retrieval")
	cmd.Flags().StringVarP(&ec.workflowPath, "workflow", "w", "", "Workflow mapping file")
	cmd.Flags().StringVarP(&ec.outputDir, "output", "o", "", "Output directory (default: current directory)")
	cmd.Flags().StringVar(&ec.format, "format", "", "Output format: csv, chart")
	cmd.Flags().StringVar(&ec.holidaysPath, "holidays", "", "YAML holidays file for business-day counting")
	cmd.Flags().BoolVar(&ec.businessDays, "business-days", false, "Report durations in business days")
	cmd.Flags().BoolVar(&ec.wholeDays, "whole-days", false, "Count whole business dates instead of fractions")
	cmd.Flags().BoolVar(&ec.strict, "strict", false, "Abort on the first bad issue instead of skipping it")
	cmd.Flags().BoolVar(&ec.validate, "validate", false, "Validate the snapshot against the issue schema before processing")

	cmd.Flags().BoolVar(&ec.cfd, "cfd", false, "Write the cumulative flow report")
	cmd.Flags().BoolVar(&ec.statusTiming, "status-timing", false, "Write the per-issue status timing report")
	cmd.Flags().BoolVar(&ec.transitions, "transitions", false, "Write the transition log report")
	cmd.Flags().BoolVar(&ec.cycleTime, "cycle-time", false, "Write the cycle time report")

	return cmd
}

func (ec *ExportCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(ec.configPath)
	if err != nil {
		return err
	}

	ec.applyConfig(cmd, cfg)

	providers, err := initObservability(cfg, observability.ModeCLI)
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

	ctx := cmd.Context()
	logger := providers.Logger

	src := issueSource{input: ec.input, project: ec.project, jql: ec.jql, validate: ec.validate}

	issues, source, err := src.load(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "issues loaded", "source", source, "count", len(issues))

	batch, calc, wf, err := ec.buildBatch(cfg, issues, source)
	if err != nil {
		return err
	}

	for _, ie := range batch.Errors {
		logger.WarnContext(ctx, "issue skipped", "key", ie.Key, "error", ie.Err)
	}

	metrics.RecordBatch(ctx, source, len(batch.Timelines()), len(batch.Errors))

	if err := os.MkdirAll(ec.outputDir, outputDirPerm); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	return ec.writeReports(ctx, batch, calc, wf, metrics, logger)
}

// applyConfig fills unset flags from the loaded configuration.
func (ec *ExportCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("business-days") {
		ec.businessDays = cfg.Export.BusinessDays
	}

	if !cmd.Flags().Changed("whole-days") {
		ec.wholeDays = cfg.Export.WholeDays
	}

	if !cmd.Flags().Changed("strict") {
		ec.strict = cfg.Export.Strict
	}

	if ec.workflowPath == "" {
		ec.workflowPath = cfg.Workflow.File
	}

	if ec.holidaysPath == "" {
		ec.holidaysPath = cfg.Export.HolidaysFile
	}

	if ec.outputDir == "" {
		ec.outputDir = cfg.Export.OutputDir
	}

	if ec.format == "" {
		ec.format = cfg.Export.Format
	}

	if ec.jql == "" {
		ec.jql = cfg.Jira.JQL
	}
}

// buildBatch assembles the workflow mapping, duration calculator, and
// processed batch. Live runs use the current time as the observation
// horizon; offline runs stay deterministic with the latest event timestamp.
func (ec *ExportCommand) buildBatch(
	cfg *config.Config, issues []jira.Issue, source string,
) (*flow.Batch, flow.Calculator, *workflow.Config, error) {
	wf, err := ec.loadWorkflow(cfg)
	if err != nil {
		return nil, flow.Calculator{}, nil, err
	}

	holidayDates, err := config.LoadHolidays(ec.holidaysPath)
	if err != nil {
		return nil, flow.Calculator{}, nil, err
	}

	holidays, err := flow.NewHolidaySet(holidayDates)
	if err != nil {
		return nil, flow.Calculator{}, nil, fmt.Errorf("holidays: %w", err)
	}

	calc := flow.Calculator{
		BusinessDays: ec.businessDays || ec.wholeDays,
		WholeDays:    ec.wholeDays,
		Holidays:     holidays,
	}

	opts := flow.Options{Strict: ec.strict}
	if source != sourceSnapshot {
		opts.Horizon = time.Now().UTC()
	}

	refs := make([]*jira.Issue, len(issues))
	for i := range issues {
		refs[i] = &issues[i]
	}

	batch, err := flow.BuildBatch(refs, wf, opts)
	if err != nil {
		return nil, flow.Calculator{}, nil, err
	}

	return batch, calc, wf, nil
}

func (ec *ExportCommand) loadWorkflow(cfg *config.Config) (*workflow.Config, error) {
	var (
		wf  *workflow.Config
		err error
	)

	switch {
	case ec.workflowPath != "":
		wf, err = workflow.ParseFile(ec.workflowPath)
	case len(cfg.Workflow.ClosedVocabulary) > 0:
		// No mapping file, but the terminal vocabulary is configured:
		// start from the identity mapping.
		wf, err = workflow.Parse(strings.NewReader(""))
	default:
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if len(cfg.Workflow.ClosedVocabulary) > 0 {
		wf.SetClosedVocabulary(cfg.Workflow.ClosedVocabulary)
	}

	return wf, nil
}

// writeReports writes every selected report. With no selection flags set,
// all reports are written.
func (ec *ExportCommand) writeReports(
	ctx context.Context,
	batch *flow.Batch,
	calc flow.Calculator,
	wf *workflow.Config,
	metrics *observability.FlowMetrics,
	logger *slog.Logger,
) error {
	all := !ec.cfd && !ec.statusTiming && !ec.transitions && !ec.cycleTime
	chart := ec.format == config.FormatChart

	type report struct {
		name     string
		file     string
		selected bool
		write    func(io.Writer) error
	}

	timingRows := export.IssueTimesRows(batch, calc)
	timingGroups := export.TimingGroups(timingRows)
	points := flow.BuildCFD(batch.Timelines(), time.Time{}, time.Time{})
	cfdGroups := flow.CFDGroups(points)

	reports := []report{
		{
			name:     reportTransition,
			file:     fileTransitions,
			selected: all || ec.transitions,
			write: func(w io.Writer) error {
				return export.WriteTransitionsCSV(w, export.TransitionRows(batch, wf))
			},
		},
		{
			name:     reportCycleTime,
			file:     fileCycleTimes,
			selected: all || ec.cycleTime,
			write: func(w io.Writer) error {
				return export.WriteCycleTimesCSV(w, export.CycleTimeRows(batch, calc), calc.Unit())
			},
		},
	}

	if chart {
		reports = append(reports,
			report{
				name:     reportTiming,
				file:     fileTimingChart,
				selected: all || ec.statusTiming,
				write: func(w io.Writer) error {
					return export.RenderTimingChart(w, timingRows, timingGroups, calc.Unit())
				},
			},
			report{
				name:     reportCFD,
				file:     fileCFDChart,
				selected: all || ec.cfd,
				write: func(w io.Writer) error {
					return export.RenderCFDChart(w, points, cfdGroups)
				},
			},
		)
	} else {
		reports = append(reports,
			report{
				name:     reportTiming,
				file:     fileIssueTimes,
				selected: all || ec.statusTiming,
				write: func(w io.Writer) error {
					return export.WriteIssueTimesCSV(w, timingRows, timingGroups)
				},
			},
			report{
				name:     reportCFD,
				file:     fileCFD,
				selected: all || ec.cfd,
				write: func(w io.Writer) error {
					return export.WriteCFDCSV(w, points, cfdGroups)
				},
			},
		)
	}

	for _, rep := range reports {
		if !rep.selected {
			continue
		}

		start := time.Now()

		path := filepath.Join(ec.outputDir, rep.file)
		if err := writeFile(path, rep.write); err != nil {
			return fmt.Errorf("write %s report: %w", rep.name, err)
		}

		metrics.RecordExport(ctx, rep.name, time.Since(start))
		logger.InfoContext(ctx, "report written", "report", rep.name, "path", path)
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// initObservability builds the telemetry providers from the loaded config.
func initObservability(cfg *config.Config, mode observability.AppMode) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == "json" || mode == observability.ModeMCP

	return observability.Init(obsCfg)
}
