// Package mcp implements a Model Context Protocol server exposing flowfang
// flow analytics as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/flowfang/internal/observability"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "flowfang"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 4
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional flow metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.FlowMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with flowfang tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.FlowMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server with all flowfang tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		opts,
	)

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all flowfang MCP tools to the server.
func (s *Server) registerTools() {
	s.registerCycleTimeTool()
	s.registerStatusTimingTool()
	s.registerTransitionsTool()
	s.registerCFDTool()
}

func (s *Server) registerCycleTimeTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCycleTime,
		Description: cycleTimeToolDescription,
	}, withMetrics(s.metrics, ToolNameCycleTime, withTracing(s.tracer, ToolNameCycleTime, handleCycleTime)))

	s.trackTool(ToolNameCycleTime)
}

func (s *Server) registerStatusTimingTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameStatusTiming,
		Description: statusTimingToolDescription,
	}, withMetrics(s.metrics, ToolNameStatusTiming, withTracing(s.tracer, ToolNameStatusTiming, handleStatusTiming)))

	s.trackTool(ToolNameStatusTiming)
}

func (s *Server) registerTransitionsTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameTransitions,
		Description: transitionsToolDescription,
	}, withMetrics(s.metrics, ToolNameTransitions, withTracing(s.tracer, ToolNameTransitions, handleTransitions)))

	s.trackTool(ToolNameTransitions)
}

func (s *Server) registerCFDTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCFD,
		Description: cfdToolDescription,
	}, withMetrics(s.metrics, ToolNameCFD, withTracing(s.tracer, ToolNameCFD, handleCFD)))

	s.trackTool(ToolNameCFD)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record tool duration per invocation.
func withMetrics[Input any](
	metrics *observability.FlowMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		result, output, err := handler(ctx, req, input)

		metrics.RecordExport(ctx, mcpSpanPrefix+toolName, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	cycleTimeToolDescription = "Compute per-issue cycle times from a Jira issue snapshot. " +
		"Accepts the snapshot JSON and an optional workflow mapping."

	statusTimingToolDescription = "Compute the time every issue spent in each status group. " +
		"Accepts the snapshot JSON and an optional workflow mapping."

	transitionsToolDescription = "List all status transitions found in a Jira issue snapshot, " +
		"with statuses mapped to canonical workflow groups."

	cfdToolDescription = "Build a cumulative flow diagram time series from a Jira issue snapshot: " +
		"issues per status group at the start of each day."
)
