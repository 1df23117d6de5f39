package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameCycleTime    = "flow_cycle_time"
	ToolNameStatusTiming = "flow_status_timing"
	ToolNameTransitions  = "flow_transitions"
	ToolNameCFD          = "flow_cfd"
)

// Input size limits.
const (
	// MaxSnapshotBytes is the maximum allowed size for inline snapshot input (16 MB).
	MaxSnapshotBytes = 16 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptySnapshot indicates the snapshot parameter is empty.
	ErrEmptySnapshot = errors.New("snapshot parameter is required and must not be empty")
	// ErrSnapshotTooLarge indicates the snapshot input exceeds the size limit.
	ErrSnapshotTooLarge = errors.New("snapshot input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// FlowInput is the shared input schema of all flow tools.
type FlowInput struct {
	Snapshot     string   `json:"snapshot"                jsonschema:"Jira issue snapshot JSON (array of issues or {issues:[...]} envelope)"`
	Workflow     string   `json:"workflow,omitempty"      jsonschema:"optional workflow mapping text, one mapping per line"`
	BusinessDays bool     `json:"business_days,omitempty" jsonschema:"report durations in business days instead of calendar days"`
	WholeDays    bool     `json:"whole_days,omitempty"    jsonschema:"count whole business dates instead of fractional days"`
	Holidays     []string `json:"holidays,omitempty"      jsonschema:"optional holiday dates in YYYY-MM-DD format"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateSnapshotInput checks common snapshot input constraints.
func validateSnapshotInput(snapshot string) error {
	if snapshot == "" {
		return ErrEmptySnapshot
	}

	if len(snapshot) > MaxSnapshotBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSnapshotTooLarge, len(snapshot), MaxSnapshotBytes)
	}

	return nil
}
