package mcp

import "github.com/mark3labs/mcp-go/mcp"

var importToolDef = mcp.NewTool("timesheet_import",
	mcp.WithDescription("Load a timesheet CSV into the store. Re-importing the same rows is safe: "+
		"projects and tasks already present are skipped. Returns counts of rows read and projects inserted/skipped."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .csv timesheet. Must not contain \"..\"; with allowed_paths configured it must sit directly in one of them")),
	mcp.WithBoolean("no_headers", mcp.Description("The first row is data; columns are Date, Project, Pay Rate, Task ID, Start Time, End Time, Duration")),
	mcp.WithNumber("workers", mcp.Description("Projects persisted in parallel (default from config)")),
)

var projectsToolDef = mcp.NewTool("timesheet_projects",
	mcp.WithDescription("List stored projects ordered by date, without tasks."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var projectToolDef = mcp.NewTool("timesheet_project",
	mcp.WithDescription("Fetch one project with its tasks and time segments."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project UUID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var tasksToolDef = mcp.NewTool("timesheet_tasks",
	mcp.WithDescription("List the tasks of a project ordered by start time."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project UUID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var segmentsToolDef = mcp.NewTool("timesheet_segments",
	mcp.WithDescription("List the time segments of a task ordered by start time."),
	mcp.WithString("task_id", mcp.Required(), mcp.Description("Task UUID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var runsToolDef = mcp.NewTool("timesheet_runs",
	mcp.WithDescription("List recorded import runs, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var reportToolDef = mcp.NewTool("timesheet_report",
	mcp.WithDescription("Summarize stored hours and pay per project."),
	mcp.WithString("format", mcp.Description("markdown (default) or html"), mcp.Enum("markdown", "html")),
	mcp.WithReadOnlyHintAnnotation(true),
)
