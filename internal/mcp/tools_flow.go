package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/flowfang/pkg/export"
	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// toolDateLayout is the date format of CFD rows in tool output.
const toolDateLayout = "2006-01-02"

// flowContext is the decoded and processed state shared by all flow tools.
type flowContext struct {
	batch *flow.Batch
	wf    *workflow.Config
	calc  flow.Calculator
}

// prepare decodes the snapshot, parses the workflow mapping, and builds the
// batch. All flow tools start here.
func prepare(input FlowInput) (*flowContext, error) {
	if err := validateSnapshotInput(input.Snapshot); err != nil {
		return nil, err
	}

	issues, err := jira.DecodeSnapshot([]byte(input.Snapshot))
	if err != nil {
		return nil, err
	}

	var wf *workflow.Config

	if input.Workflow != "" {
		wf, err = workflow.Parse(strings.NewReader(input.Workflow))
		if err != nil {
			return nil, err
		}
	}

	refs := make([]*jira.Issue, len(issues))
	for i := range issues {
		refs[i] = &issues[i]
	}

	batch, err := flow.BuildBatch(refs, wf, flow.Options{})
	if err != nil {
		return nil, err
	}

	holidays, err := flow.NewHolidaySet(input.Holidays)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}

	calc := flow.Calculator{
		BusinessDays: input.BusinessDays || input.WholeDays,
		WholeDays:    input.WholeDays,
		Holidays:     holidays,
	}

	return &flowContext{batch: batch, wf: wf, calc: calc}, nil
}

// skippedIssues summarizes per-issue errors for tool output.
func skippedIssues(batch *flow.Batch) []map[string]string {
	if len(batch.Errors) == 0 {
		return nil
	}

	skipped := make([]map[string]string, 0, len(batch.Errors))
	for _, ie := range batch.Errors {
		skipped = append(skipped, map[string]string{"key": ie.Key, "reason": ie.Err.Error()})
	}

	return skipped
}

func handleCycleTime(_ context.Context, _ *mcpsdk.CallToolRequest, input FlowInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	fc, err := prepare(input)
	if err != nil {
		return errorResult(err)
	}

	rows := export.CycleTimeRows(fc.batch, fc.calc)

	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := map[string]any{
			"key":       row.Key,
			"completed": row.Completed,
		}

		if !row.Start.IsZero() {
			item["start"] = row.Start.Format(time.RFC3339)
		}

		if row.Completed {
			item["end"] = row.End.Format(time.RFC3339)
			item["days"] = row.Days
		}

		items = append(items, item)
	}

	return jsonResult(map[string]any{
		"unit":       fc.calc.Unit(),
		"markers":    map[string]string{"first": fc.batch.Markers.First, "last": fc.batch.Markers.Last},
		"cycle_time": items,
		"skipped":    skippedIssues(fc.batch),
	})
}

func handleStatusTiming(_ context.Context, _ *mcpsdk.CallToolRequest, input FlowInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	fc, err := prepare(input)
	if err != nil {
		return errorResult(err)
	}

	rows := export.IssueTimesRows(fc.batch, fc.calc)

	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, map[string]any{
			"key":   row.Key,
			"times": row.Times,
		})
	}

	return jsonResult(map[string]any{
		"unit":    fc.calc.Unit(),
		"groups":  export.TimingGroups(rows),
		"timing":  items,
		"skipped": skippedIssues(fc.batch),
	})
}

func handleTransitions(_ context.Context, _ *mcpsdk.CallToolRequest, input FlowInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	fc, err := prepare(input)
	if err != nil {
		return errorResult(err)
	}

	rows := export.TransitionRows(fc.batch, fc.wf)

	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, map[string]any{
			"key":  row.Key,
			"at":   row.At.Format(time.RFC3339),
			"from": row.From,
			"to":   row.To,
		})
	}

	return jsonResult(map[string]any{
		"transitions": items,
		"skipped":     skippedIssues(fc.batch),
	})
}

func handleCFD(_ context.Context, _ *mcpsdk.CallToolRequest, input FlowInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	fc, err := prepare(input)
	if err != nil {
		return errorResult(err)
	}

	points := flow.BuildCFD(fc.batch.Timelines(), time.Time{}, time.Time{})

	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]any{
			"date":   p.Date.Format(toolDateLayout),
			"counts": p.Counts,
		})
	}

	return jsonResult(map[string]any{
		"groups":  flow.CFDGroups(points),
		"series":  items,
		"skipped": skippedIssues(fc.batch),
	})
}
