// Package mcp provides an MCP (Model Context Protocol) server that exposes
// HTN problem lowering as MCP tools for AI assistants.
package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
	"github.com/valter-silva-au/temporal-htn/internal/core"
	"github.com/valter-silva-au/temporal-htn/internal/observability"
)

// Server wraps the conversion services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	pipeline    core.ConversionService
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server. metricsCalc and alertEngine may be
// nil if observability is disabled.
func NewServer(pipeline core.ConversionService, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		pipeline:    pipeline,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "htnc", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type lowerProblemInput struct {
	Document string `json:"document" jsonschema:"required,the problem file as YAML"`
}

type lowerProblemOutput struct {
	Problem    string          `json:"problem"`
	Stats      chronicle.Stats `json:"stats"`
	Signatures int             `json:"signatures"`
	Chronicle  string          `json:"chronicle"`
}

type solveProblemInput struct {
	Path     string `json:"path" jsonschema:"required,path of the problem file"`
	PlanFile string `json:"plan_file,omitempty" jsonschema:"where to write the plan. Defaults to <output>/<problem>.plan"`
}

type solveProblemOutput struct {
	Problem  string `json:"problem"`
	Solved   bool   `json:"solved"`
	PlanFile string `json:"plan_file"`
	Duration string `json:"duration"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	ProblemsConverted  int     `json:"problems_converted"`
	ConversionFailures int     `json:"conversion_failures"`
	ProblemsSolved     int     `json:"problems_solved"`
	ProblemsUnsolved   int     `json:"problems_unsolved"`
	SolveFailures      int     `json:"solve_failures"`
	Signatures         int     `json:"signatures"`
	FailureRate        float64 `json:"failure_rate"`
	EventCount         int     `json:"event_count"`
	OldestEvent        string  `json:"oldest_event,omitempty"`
	NewestEvent        string  `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "lower_problem",
		Description: "Lower a temporal HTN problem file (YAML) to a chronicle. Returns conversion statistics and the chronicle as YAML.",
	}, s.handleLowerProblem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "solve_problem",
		Description: "Lower the problem file at a path and run the configured chronicle solver on it.",
	}, s.handleSolveProblem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated conversion and solver metrics from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (conversion failure rate, unsolved streaks, slow solves).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleLowerProblem(ctx context.Context, _ *gomcp.CallToolRequest, input lowerProblemInput) (*gomcp.CallToolResult, lowerProblemOutput, error) {
	if input.Document == "" {
		return errorResult("document is required"), lowerProblemOutput{}, nil
	}

	r, err := s.pipeline.Lower(ctx, []byte(input.Document))
	if err != nil {
		return errorResult(fmt.Sprintf("lowering problem: %s", err)), lowerProblemOutput{}, nil
	}

	var buf bytes.Buffer
	if err := r.Chronicle.WriteYAML(&buf); err != nil {
		return errorResult(fmt.Sprintf("rendering chronicle: %s", err)), lowerProblemOutput{}, nil
	}

	return nil, lowerProblemOutput{
		Problem:    r.Problem,
		Stats:      r.Stats,
		Signatures: r.Signatures,
		Chronicle:  buf.String(),
	}, nil
}

func (s *Server) handleSolveProblem(ctx context.Context, _ *gomcp.CallToolRequest, input solveProblemInput) (*gomcp.CallToolResult, solveProblemOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), solveProblemOutput{}, nil
	}

	r, err := s.pipeline.Solve(ctx, input.Path, input.PlanFile)
	if err != nil && !errors.Is(err, chronicle.ErrNoSolution) {
		return errorResult(fmt.Sprintf("solving %s: %s", input.Path, err)), solveProblemOutput{}, nil
	}

	return nil, solveProblemOutput{
		Problem:  r.Problem,
		Solved:   r.Solved,
		PlanFile: r.PlanFile,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), metricsOutput{}, nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := ParseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), metricsOutput{}, nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), metricsOutput{}, nil
	}

	out := metricsOutput{
		ProblemsConverted:  metrics.ProblemsConverted,
		ConversionFailures: metrics.ConversionFailures,
		ProblemsSolved:     metrics.ProblemsSolved,
		ProblemsUnsolved:   metrics.ProblemsUnsolved,
		SolveFailures:      metrics.SolveFailures,
		Signatures:         metrics.Signatures,
		FailureRate:        metrics.FailureRate(),
		EventCount:         metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func ParseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
