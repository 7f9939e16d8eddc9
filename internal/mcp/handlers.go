package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/sheetload/internal/config"
	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	log logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *Handlers {
	return &Handlers{db: db, cfg: cfg, log: log.WithField("transport", "mcp")}
}

// ImportRequest represents the arguments for timesheet_import.
type ImportRequest struct {
	Path      string `json:"path"`
	NoHeaders bool   `json:"no_headers,omitempty"`
	Workers   int    `json:"workers,omitempty"`
}

// ProjectRequest represents the arguments for timesheet_project.
type ProjectRequest struct {
	ID string `json:"id"`
}

// TasksRequest represents the arguments for timesheet_tasks.
type TasksRequest struct {
	ProjectID string `json:"project_id"`
}

// SegmentsRequest represents the arguments for timesheet_segments.
type SegmentsRequest struct {
	TaskID string `json:"task_id"`
}

// ReportRequest represents the arguments for timesheet_report.
type ReportRequest struct {
	Format string `json:"format,omitempty"`
}

// HandleImport handles the timesheet_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, h.log, ops.ImportInput{
		Path:      input.Path,
		NoHeaders: input.NoHeaders,
		Workers:   input.Workers,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProjects handles the timesheet_projects tool call.
func (h *Handlers) HandleProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListProjects(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProject handles the timesheet_project tool call.
func (h *Handlers) HandleProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.GetProject(ctx, h.db, ops.GetProjectInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTasks handles the timesheet_tasks tool call.
func (h *Handlers) HandleTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TasksRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListTasks(ctx, h.db, ops.ListTasksInput{ProjectID: input.ProjectID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSegments handles the timesheet_segments tool call.
func (h *Handlers) HandleSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SegmentsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListSegments(ctx, h.db, ops.ListSegmentsInput{TaskID: input.TaskID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRuns handles the timesheet_runs tool call.
func (h *Handlers) HandleRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListRuns(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReport handles the timesheet_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Report(ctx, h.db, ops.ReportInput{Format: input.Format})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal and connectivity details are withheld; they can carry file paths
// and SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if lErr, ok := errors.As(err); ok {
		message := lErr.Message
		if err != error(lErr) {
			// Keep wrapper context such as "project 2: ..."
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": message,
		}
		if lErr.Code != errors.ErrInternal && lErr.Code != errors.ErrConnectivity && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
