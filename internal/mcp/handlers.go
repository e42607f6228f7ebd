package mcp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
	"github.com/hpungsan/mealtrace/internal/report"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{cfg: cfg}
}

// ReportRequest represents the arguments shared by the report tools.
type ReportRequest struct {
	Path       string   `json:"path"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Format     string   `json:"format,omitempty"`
	GapMinutes int      `json:"gap_minutes,omitempty"`
}

func (r ReportRequest) input() ops.ReportInput {
	return ops.ReportInput{Path: r.Path, From: r.From, To: r.To, Sources: r.Sources}
}

// SnapshotRequest represents the arguments for snapshot_write.
type SnapshotRequest struct {
	Path       string   `json:"path"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	GapMinutes int      `json:"gap_minutes,omitempty"`
	DBPath     string   `json:"db_path,omitempty"`
}

// RunsRequest represents the arguments for snapshot_runs.
type RunsRequest struct {
	DBPath string `json:"db_path,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// HandleFoods handles the report_foods tool call.
func (h *Handlers) HandleFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}

	out, err := ops.Foods(ctx, h.cfg, input.input())
	if err != nil {
		return errorResult(err), nil
	}
	return h.reportResult(f, out, func(r *report.Renderer, w io.Writer) error {
		return r.Foods(w, f, out)
	})
}

// HandleMeals handles the report_meals tool call.
func (h *Handlers) HandleMeals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}

	out, err := ops.Meals(ctx, h.cfg, ops.MealsInput{
		ReportInput: input.input(),
		GapMinutes:  input.GapMinutes,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return h.reportResult(f, out, func(r *report.Renderer, w io.Writer) error {
		return r.Meals(w, f, out)
	})
}

// HandleWeeklyFoods handles the report_weekly_foods tool call.
func (h *Handlers) HandleWeeklyFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}

	out, err := ops.WeeklyFoods(ctx, h.cfg, input.input())
	if err != nil {
		return errorResult(err), nil
	}
	return h.reportResult(f, out, func(r *report.Renderer, w io.Writer) error {
		return r.WeeklyFoods(w, f, out)
	})
}

// HandleWeeklySlots handles the report_weekly_slots tool call.
func (h *Handlers) HandleWeeklySlots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}

	out, err := ops.WeeklySlots(ctx, h.cfg, input.input())
	if err != nil {
		return errorResult(err), nil
	}
	return h.reportResult(f, out, func(r *report.Renderer, w io.Writer) error {
		return r.WeeklySlots(w, f, out)
	})
}

// HandleSnapshot handles the snapshot_write tool call.
func (h *Handlers) HandleSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnapshotRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Snapshot(ctx, h.cfg, ops.SnapshotInput{
		ReportInput: ops.ReportInput{
			Path:    input.Path,
			From:    input.From,
			To:      input.To,
			Sources: input.Sources,
		},
		GapMinutes: input.GapMinutes,
		DBPath:     input.DBPath,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRuns handles the snapshot_runs tool call.
func (h *Handlers) HandleRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Runs(ctx, ops.RunsInput{
		DBPath: input.DBPath,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// parseFormat maps the optional format argument. Empty means JSON.
func parseFormat(s string) (report.Format, error) {
	if s == "" {
		return report.FormatJSON, nil
	}
	f, err := report.ParseFormat(s)
	if err != nil {
		return "", err
	}
	if f == report.FormatHTML {
		return "", errors.NewInvalidRequest("format html is not supported by tools")
	}
	return f, nil
}

// reportResult returns data as JSON, or as rendered text for other formats.
func (h *Handlers) reportResult(f report.Format, data any, render func(*report.Renderer, io.Writer) error) (*mcp.CallToolResult, error) {
	if f == report.FormatJSON {
		return successResult(data)
	}
	fields, err := nutrition.NewOutputFields(h.cfg.OutputFields)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	r := report.New(fields)
	text, err := report.Render(func(w io.Writer) error { return render(r, w) })
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return mcp.NewToolResultText(string(text)), nil
}

// errorResult converts an error into the tool error payload.
// Details are omitted for INTERNAL errors so paths and SQL text stay private.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if mErr, ok := errors.As(err); ok {
		msg := mErr.Message
		if err != error(mErr) {
			// Keep the wrapper context, e.g. "meals: record 3: ..."
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    mErr.Code,
			"message": msg,
			"status":  mErr.Status,
		}
		if mErr.Code != errors.ErrInternal && mErr.Details != nil {
			errorObj["details"] = mErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates a successful tool result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
